package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cronCmd := &cobra.Command{
		Use:   "cron",
		Short: "Manage scheduled tasks",
	}

	cronCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scheduled tasks",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("No scheduled tasks yet.")
			fmt.Println()
			fmt.Println("Usage:")
			fmt.Println(`  sidekick cron add '0 9 * * *' 'agent -m "Good morning!"'`)
		},
	})

	cronCmd.AddCommand(&cobra.Command{
		Use:   "add [expression] [command]",
		Short: "Schedule a task",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Cron scheduling coming soon!")
			fmt.Printf("  Expression: %s\n", args[0])
			fmt.Printf("  Command: %s\n", args[1])
		},
	})

	cronCmd.AddCommand(&cobra.Command{
		Use:   "remove [id]",
		Short: "Remove a scheduled task",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			exitErr("cron", fmt.Errorf("remove task %q not yet implemented", args[0]))
		},
	})

	RootCmd.AddCommand(cronCmd)
}
