package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/sandeepkv93/focusd/internal/api"
	"github.com/sandeepkv93/focusd/internal/client"
	"github.com/sandeepkv93/focusd/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage tasks on the focusd server",
}

var tasksImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Create tasks from a YAML file",
	Long: `Create tasks from a YAML file. The file is either a list of tasks or a
mapping with a "tasks" key:

  tasks:
    - title: Write report
      description: "Quarterly numbers, see *notes.md*"
      allowed_app_ids: [code, obsidian]
      allowed_titles: [report]`,
	Args: cobra.ExactArgs(1),
	RunE: runTasksImport,
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

func init() {
	tasksCmd.PersistentFlags().String("api", "", "focusd API base URL (overrides dashboard.api_url)")
	tasksListCmd.Flags().String("state", "", "only list tasks in this state (open, active, done)")
	tasksCmd.AddCommand(tasksImportCmd, tasksListCmd)
	rootCmd.AddCommand(tasksCmd)
}

type taskFile struct {
	Tasks []model.Task `yaml:"tasks"`
}

// parseTaskFile accepts a bare YAML list or a document with a tasks key.
// Every entry is validated before anything is sent to the server.
func parseTaskFile(data []byte) ([]api.TaskInput, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("task file is empty")
	}

	var tasks []model.Task
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&tasks); err != nil {
			return nil, fmt.Errorf("decode tasks: %w", err)
		}
	case yaml.MappingNode:
		var f taskFile
		if err := root.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode tasks: %w", err)
		}
		tasks = f.Tasks
	default:
		return nil, errors.New("task file must be a list or a mapping with a tasks key")
	}

	var errs []error
	out := make([]api.TaskInput, 0, len(tasks))
	for i, t := range tasks {
		t = t.Normalized()
		if t.Title == "" {
			errs = append(errs, fmt.Errorf("task %d: %w", i+1, model.ErrInvalidTitle))
			continue
		}
		if !t.State.IsValid() {
			errs = append(errs, fmt.Errorf("task %d: %w: %q", i+1, model.ErrInvalidState, t.State))
			continue
		}
		out = append(out, api.TaskInput{
			ID:            t.ID,
			Title:         t.Title,
			Description:   t.Description,
			State:         t.State,
			AllowedAppIDs: t.AllowedAppIDs,
			AllowedTitles: t.AllowedTitles,
		})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

type taskCreator interface {
	CreateTask(ctx context.Context, in api.TaskInput) (model.Task, error)
}

// importTasks creates tasks in order and stops at the first failure,
// returning how many were created.
func importTasks(ctx context.Context, c taskCreator, inputs []api.TaskInput, out io.Writer) (int, error) {
	for i, in := range inputs {
		t, err := c.CreateTask(ctx, in)
		if err != nil {
			return i, fmt.Errorf("create %q: %w", in.Title, err)
		}
		fmt.Fprintf(out, "created %s  %s\n", t.ID, t.Title)
	}
	return len(inputs), nil
}

func apiClient(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	base := cfg.Dashboard.APIURL
	if flag, _ := cmd.Flags().GetString("api"); flag != "" {
		base = strings.TrimRight(flag, "/")
	}
	return client.New(base, client.WithTimeout(cfg.Dashboard.RequestTimeout)), nil
}

func runTasksImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	inputs, err := parseTaskFile(data)
	if err != nil {
		return err
	}
	c, err := apiClient(cmd)
	if err != nil {
		return err
	}
	n, err := importTasks(cmd.Context(), c, inputs, cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d tasks\n", n, len(inputs))
	return err
}

func runTasksList(cmd *cobra.Command, _ []string) error {
	c, err := apiClient(cmd)
	if err != nil {
		return err
	}
	state, _ := cmd.Flags().GetString("state")
	tasks, err := c.ListTasks(cmd.Context(), model.TaskState(state))
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	writeTaskTable(&buf, tasks)
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func writeTaskTable(w io.Writer, tasks []model.Task) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATE\tTITLE\tALLOWED")
	for _, t := range tasks {
		allowed := strings.Join(append(append([]string{}, t.AllowedAppIDs...), t.AllowedTitles...), ",")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.State, t.Title, allowed)
	}
	tw.Flush()
}
