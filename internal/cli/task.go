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

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long: `Tasks are to-do items you work through during focus phases. A task can
be filed under an intent. Tasks are referenced by id or by title.`,
}

var (
	taskListAll    bool
	taskListIntent string
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			intentID := ""
			if taskListIntent != "" {
				intent, err := resolveIntent(ctx, store, taskListIntent)
				if err != nil {
					return err
				}
				intentID = intent.ID
			}
			tasks, err := store.ListTasks(ctx, taskListAll, intentID)
			if err != nil {
				return err
			}
			labels, err := intentLabels(ctx, store)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks. Add one with: pomodoro task add <title>")
				return nil
			}
			for _, task := range tasks {
				fmt.Fprintln(out, formatTask(task, labels[task.IntentID]))
			}
			return nil
		})(cmd)
	},
}

var taskAddIntent string

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := strings.Join(args, " ")
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			intentID := ""
			if taskAddIntent != "" {
				intent, err := resolveIntent(ctx, store, taskAddIntent)
				if err != nil {
					return err
				}
				if intent.Archived() {
					return fmt.Errorf("intent %q is archived", intent.Label)
				}
				intentID = intent.ID
			}
			task, err := store.CreateTask(ctx, title, intentID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %q (%s)\n", task.Title, task.ID)
			return nil
		})(cmd)
	},
}

var taskRenameCmd = &cobra.Command{
	Use:   "rename <task> <title>",
	Short: "Change a task's title",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			task, err := resolveTask(ctx, store, args[0])
			if err != nil {
				return err
			}
			task.Title = strings.Join(args[1:], " ")
			if err := store.UpdateTask(ctx, task); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed task to %q\n", strings.TrimSpace(task.Title))
			return nil
		})(cmd)
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task>",
	Short: "Mark a task done",
	Args:  cobra.ExactArgs(1),
	RunE:  setTaskDone(true),
}

var taskReopenCmd = &cobra.Command{
	Use:   "reopen <task>",
	Short: "Mark a done task open again",
	Args:  cobra.ExactArgs(1),
	RunE:  setTaskDone(false),
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			task, err := resolveTask(ctx, store, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteTask(ctx, task.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %q\n", task.Title)
			return nil
		})(cmd)
	},
}

func init() {
	taskListCmd.Flags().BoolVarP(&taskListAll, "all", "a", false, "include done tasks")
	taskListCmd.Flags().StringVarP(&taskListIntent, "intent", "i", "", "only tasks filed under this intent")
	taskAddCmd.Flags().StringVarP(&taskAddIntent, "intent", "i", "", "file the task under an intent")

	taskCmd.AddCommand(taskListCmd, taskAddCmd, taskRenameCmd, taskDoneCmd, taskReopenCmd, taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}

func setTaskDone(done bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, store *storage.SQLiteStore) error {
			task, err := resolveTask(ctx, store, args[0])
			if err != nil {
				return err
			}
			if err := store.SetTaskDone(ctx, task.ID, done); err != nil {
				return err
			}
			state := "open"
			if done {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q is %s\n", task.Title, state)
			return nil
		})(cmd)
	}
}

// resolveTask matches ref against ids first, then titles (case-insensitive).
func resolveTask(ctx context.Context, store *storage.SQLiteStore, ref string) (model.Task, error) {
	if task, err := store.GetTask(ctx, ref); err == nil {
		return task, nil
	} else if !errors.Is(err, storage.ErrTaskNotFound) {
		return model.Task{}, err
	}
	tasks, err := store.ListTasks(ctx, true, "")
	if err != nil {
		return model.Task{}, err
	}
	for _, task := range tasks {
		if strings.EqualFold(task.Title, ref) {
			return task, nil
		}
	}
	return model.Task{}, fmt.Errorf("%w: %s", storage.ErrTaskNotFound, ref)
}

func intentLabels(ctx context.Context, store *storage.SQLiteStore) (map[string]string, error) {
	intents, err := store.ListIntents(ctx, true)
	if err != nil {
		return nil, err
	}
	labels := make(map[string]string, len(intents))
	for _, intent := range intents {
		labels[intent.ID] = intent.Label
	}
	return labels, nil
}

func formatTask(task model.Task, intentLabel string) string {
	box := "[ ]"
	if task.Done() {
		box = "[x]"
	}
	line := fmt.Sprintf("%s %s  %s", box, task.ID, task.Title)
	if intentLabel != "" {
		line += "  @" + intentLabel
	}
	return line
}
