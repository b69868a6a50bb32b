package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// focusCmd reports a window by hand, the way the browser extension does.
// Handy for scripting and for trying the dashboard without the extension.
var focusCmd = &cobra.Command{
	Use:   "focus <app-id> [title...]",
	Short: "Report the focused application",
	Args:  cobra.ArbitraryArgs,
	RunE:  runFocus,
}

func init() {
	focusCmd.Flags().String("api", "", "focusd API base URL (overrides dashboard.api_url)")
	focusCmd.Flags().Bool("clear", false, "report that nothing is focused")
	focusCmd.Flags().String("task", "", "print whether the focus is allowed for this task id")
	rootCmd.AddCommand(focusCmd)
}

func runFocus(cmd *cobra.Command, args []string) error {
	clearFocus, _ := cmd.Flags().GetBool("clear")
	if !clearFocus && len(args) == 0 {
		return fmt.Errorf("app id is required unless --clear is set")
	}
	c, err := apiClient(cmd)
	if err != nil {
		return err
	}

	var appID, title string
	if !clearFocus {
		appID = args[0]
		title = strings.Join(args[1:], " ")
	}
	cur, err := c.ReportFocus(cmd.Context(), appID, title)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if cur == nil {
		fmt.Fprintln(out, "focus cleared")
		return nil
	}
	fmt.Fprintf(out, "focused: %s %q\n", cur.AppID, cur.Title)

	if taskID, _ := cmd.Flags().GetString("task"); taskID != "" {
		status, err := c.FocusStatus(cmd.Context(), taskID)
		if err != nil {
			return err
		}
		if status.Warning {
			fmt.Fprintln(out, status.Label)
		} else {
			fmt.Fprintln(out, "on task")
		}
	}
	return nil
}
