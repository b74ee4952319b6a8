package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"pomodoro/internal/core/model"
	"pomodoro/internal/core/queue"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage session queues",
	Long: `Create and edit queues of focus sessions. A queue runs its sessions in
order, repeating each one for its cycle count, and starts over from the top
when the last session is done.

Queues are referenced by id or by name. Session positions are 1-based.`,
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queues and their sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd, func(library *queue.Library) error {
			queues := library.Queues()
			out := cmd.OutOrStdout()
			if len(queues) == 0 {
				fmt.Fprintln(out, "No queues. Create one with: pomodoro queue create <name>")
				return nil
			}
			for _, current := range queues {
				printQueue(out, current)
			}
			return nil
		})
	},
}

var queueShowCmd = &cobra.Command{
	Use:   "show <queue>",
	Short: "Show one queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd, func(library *queue.Library) error {
			found, err := findQueue(library, args[0])
			if err != nil {
				return err
			}
			printQueue(cmd.OutOrStdout(), found)
			return nil
		})
	},
}

var queueCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			return errors.New("queue name is empty")
		}
		return withLibrary(cmd, func(library *queue.Library) error {
			created := library.CreateQueue(name)
			fmt.Fprintf(cmd.OutOrStdout(), "Created queue %q (%s)\n", created.Name, created.ID)
			return nil
		})
	},
}

var queueDeleteCmd = &cobra.Command{
	Use:   "delete <queue>",
	Short: "Delete a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd, func(library *queue.Library) error {
			found, err := findQueue(library, args[0])
			if err != nil {
				return err
			}
			if err := library.DeleteQueue(found.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted queue %q\n", found.Name)
			return nil
		})
	},
}

var queueRenameCmd = &cobra.Command{
	Use:   "rename <queue> <new-name>",
	Short: "Rename a queue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLibrary(cmd, func(library *queue.Library) error {
			found, err := findQueue(library, args[0])
			if err != nil {
				return err
			}
			renamed, err := library.RenameQueue(found.ID, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", found.Name, renamed.Name)
			return nil
		})
	},
}

var (
	addMinutes int
	addCycles  int
	addProject string
)

var queueAddCmd = &cobra.Command{
	Use:   "add <queue>",
	Short: "Append a session to a queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := queue.CreateSession(addMinutes, addCycles, addProject)
		if err != nil {
			return err
		}
		return withLibrary(cmd, func(library *queue.Library) error {
			found, err := findQueue(library, args[0])
			if err != nil {
				return err
			}
			updated, err := library.AddSession(found.ID, session)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added session %d to %q: %d min x %d\n",
				len(updated.Sessions), updated.Name, session.DurationMinutes, session.Cycles)
			return nil
		})
	},
}

var queueRemoveCmd = &cobra.Command{
	Use:   "remove <queue> <position>",
	Short: "Remove the session at a position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parsePosition(args[1])
		if err != nil {
			return err
		}
		return withLibrary(cmd, func(library *queue.Library) error {
			found, err := findQueue(library, args[0])
			if err != nil {
				return err
			}
			if index >= len(found.Sessions) {
				return fmt.Errorf("%w: position %d of %d", model.ErrIndexOutOfBounds, index+1, len(found.Sessions))
			}
			if _, err := library.RemoveSession(found.ID, found.Sessions[index].ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session %d from %q\n", index+1, found.Name)
			return nil
		})
	},
}

var queueMoveCmd = &cobra.Command{
	Use:   "move <queue> <from> <to>",
	Short: "Move a session to another position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parsePosition(args[1])
		if err != nil {
			return err
		}
		to, err := parsePosition(args[2])
		if err != nil {
			return err
		}
		return withLibrary(cmd, func(library *queue.Library) error {
			found, err := findQueue(library, args[0])
			if err != nil {
				return err
			}
			moved, err := library.ReorderSession(found.ID, from, to)
			if err != nil {
				return err
			}
			printQueue(cmd.OutOrStdout(), moved)
			return nil
		})
	},
}

func init() {
	queueAddCmd.Flags().IntVarP(&addMinutes, "minutes", "m", 25, "focus minutes per cycle (1-90)")
	queueAddCmd.Flags().IntVarP(&addCycles, "cycles", "c", 1, "number of focus cycles (1-16)")
	queueAddCmd.Flags().StringVarP(&addProject, "project", "p", "", "optional project label")

	queueCmd.AddCommand(queueListCmd, queueShowCmd, queueCreateCmd, queueDeleteCmd,
		queueRenameCmd, queueAddCmd, queueRemoveCmd, queueMoveCmd)
	rootCmd.AddCommand(queueCmd)
}

// withLibrary opens the data directory, runs fn over the queue library and
// waits for the store to catch up. Persistence failures fail the command.
func withLibrary(cmd *cobra.Command, fn func(*queue.Library) error) error {
	env, err := openEnvironment()
	if err != nil {
		return err
	}
	defer env.Close()

	failures := &collectErrors{}
	library, writer, err := env.library(cmd.Context(), failures.add)
	if err != nil {
		return err
	}
	runErr := fn(library)
	writer.Close()
	if runErr != nil {
		return runErr
	}
	return failures.err()
}

func printQueue(out io.Writer, current model.Queue) {
	fmt.Fprintf(out, "%s  (%s)  %d sessions, %d focus cycles per pass\n",
		current.Name, current.ID, len(current.Sessions), current.TotalCycles())
	for index, session := range current.Sessions {
		line := fmt.Sprintf("  %2d. %3d min x %d", index+1, session.DurationMinutes, session.Cycles)
		if session.ProjectID != "" {
			line += "  [" + session.ProjectID + "]"
		}
		fmt.Fprintln(out, line)
	}
}
