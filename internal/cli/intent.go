package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pomodoro/internal/core/model"
	"pomodoro/internal/storage"

	"github.com/spf13/cobra"
)

var intentCmd = &cobra.Command{
	Use:   "intent",
	Short: "Manage focus intents",
	Long: `Intents label what your focus time is spent on. The active intent is
attached to every completed focus phase in the history.`,
}

var intentListAll bool

var intentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List intents (pinned first)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			intents, err := store.ListIntents(ctx, intentListAll)
			if err != nil {
				return err
			}
			activeID, err := store.ActiveIntentID(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(intents) == 0 {
				fmt.Fprintln(out, "No intents. Add one with: pomodoro intent add <label>")
				return nil
			}
			for _, intent := range intents {
				fmt.Fprintln(out, formatIntent(intent, intent.ID == activeID))
			}
			return nil
		})(cmd)
	},
}

var intentAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Create an intent",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := strings.Join(args, " ")
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			intent, err := store.CreateIntent(ctx, label)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created intent %q (%s)\n", intent.Label, intent.ID)
			return nil
		})(cmd)
	},
}

var intentPinCmd = &cobra.Command{
	Use:   "pin <intent>",
	Short: "Pin an intent to the top of the list",
	Args:  cobra.ExactArgs(1),
	RunE:  setPinned(true),
}

var intentUnpinCmd = &cobra.Command{
	Use:   "unpin <intent>",
	Short: "Unpin an intent",
	Args:  cobra.ExactArgs(1),
	RunE:  setPinned(false),
}

var intentArchiveCmd = &cobra.Command{
	Use:   "archive <intent>",
	Short: "Hide an intent from the default list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			intent, err := resolveIntent(ctx, store, args[0])
			if err != nil {
				return err
			}
			if err := store.ArchiveIntent(ctx, intent.ID); err != nil {
				return err
			}
			// An archived intent cannot stay active.
			if activeID, err := store.ActiveIntentID(ctx); err == nil && activeID == intent.ID {
				if err := store.SetActiveIntent(ctx, ""); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived %q\n", intent.Label)
			return nil
		})(cmd)
	},
}

var intentUnarchiveCmd = &cobra.Command{
	Use:   "unarchive <intent>",
	Short: "Restore an archived intent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			intent, err := resolveIntent(ctx, store, args[0])
			if err != nil {
				return err
			}
			if err := store.UnarchiveIntent(ctx, intent.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %q\n", intent.Label)
			return nil
		})(cmd)
	},
}

var intentRenameCmd = &cobra.Command{
	Use:   "rename <intent> <label>",
	Short: "Change an intent's label",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := strings.TrimSpace(strings.Join(args[1:], " "))
		if label == "" {
			return errors.New("intent label is empty")
		}
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			intent, err := resolveIntent(ctx, store, args[0])
			if err != nil {
				return err
			}
			previous := intent.Label
			intent.Label = label
			if err := store.UpdateIntent(ctx, intent); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", previous, label)
			return nil
		})(cmd)
	},
}

var intentTagCmd = &cobra.Command{
	Use:   "tag <intent> [tag...]",
	Short: "Replace an intent's tags; no tags clears them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			intent, err := resolveIntent(ctx, store, args[0])
			if err != nil {
				return err
			}
			intent.Tags = normalizeTags(args[1:])
			if err := store.UpdateIntent(ctx, intent); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatIntent(intent, false))
			return nil
		})(cmd)
	},
}

var intentDeleteCmd = &cobra.Command{
	Use:   "delete <intent>",
	Short: "Delete an intent; its tasks become unfiled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			intent, err := resolveIntent(ctx, store, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteIntent(ctx, intent.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", intent.Label)
			return nil
		})(cmd)
	},
}

var intentUseClear bool

var intentUseCmd = &cobra.Command{
	Use:   "use [intent]",
	Short: "Select the active intent",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !intentUseClear && len(args) == 0 {
			return errors.New("name an intent or pass --clear")
		}
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			if intentUseClear {
				if err := store.SetActiveIntent(ctx, ""); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Active intent cleared")
				return nil
			}
			intent, err := resolveIntent(ctx, store, args[0])
			if err != nil {
				return err
			}
			if intent.Archived() {
				return fmt.Errorf("intent %q is archived", intent.Label)
			}
			if err := store.SetActiveIntent(ctx, intent.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active intent: %s\n", intent.Label)
			return nil
		})(cmd)
	},
}

func init() {
	intentListCmd.Flags().BoolVarP(&intentListAll, "all", "a", false, "include archived intents")
	intentUseCmd.Flags().BoolVar(&intentUseClear, "clear", false, "clear the active intent")

	intentCmd.AddCommand(intentListCmd, intentAddCmd, intentRenameCmd, intentTagCmd,
		intentPinCmd, intentUnpinCmd, intentArchiveCmd, intentUnarchiveCmd,
		intentDeleteCmd, intentUseCmd)
	rootCmd.AddCommand(intentCmd)
}

func setPinned(pinned bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			intent, err := resolveIntent(ctx, store, args[0])
			if err != nil {
				return err
			}
			intent.Pinned = pinned
			if err := store.UpdateIntent(ctx, intent); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatIntent(intent, false))
			return nil
		})(cmd)
	}
}

// withStore adapts a store operation into a command body.
func withStore(fn func(context.Context, *storage.SQLiteStore) error) func(*cobra.Command) error {
	return func(cmd *cobra.Command) error {
		env, err := openEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()
		return fn(cmd.Context(), env.store)
	}
}

// resolveIntent matches ref against ids first, then labels (case-insensitive).
func resolveIntent(ctx context.Context, store *storage.SQLiteStore, ref string) (model.Intent, error) {
	if intent, err := store.GetIntent(ctx, ref); err == nil {
		return intent, nil
	} else if !errors.Is(err, storage.ErrIntentNotFound) {
		return model.Intent{}, err
	}
	intents, err := store.ListIntents(ctx, true)
	if err != nil {
		return model.Intent{}, err
	}
	for _, intent := range intents {
		if strings.EqualFold(intent.Label, ref) {
			return intent, nil
		}
	}
	return model.Intent{}, fmt.Errorf("%w: %s", storage.ErrIntentNotFound, ref)
}

func formatIntent(intent model.Intent, active bool) string {
	marker := " "
	if active {
		marker = "*"
	}
	line := fmt.Sprintf("%s %s  %s", marker, intent.ID, intent.Label)
	if intent.Pinned {
		line += "  (pinned)"
	}
	if len(intent.Tags) > 0 {
		line += "  #" + strings.Join(intent.Tags, " #")
	}
	if intent.Archived() {
		line += "  (archived)"
	}
	return line
}

// normalizeTags trims, drops empties and de-duplicates, keeping first-seen order.
func normalizeTags(raw []string) []string {
	tags := []string{}
	seen := map[string]bool{}
	for _, tag := range raw {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
