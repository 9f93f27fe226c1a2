package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/sidekick/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories",
		Run:   runList,
	}

	cmd.Flags().String("category", "", "Filter by category")
	cmd.Flags().Bool("keys-only", false, "Only output keys")

	RootCmd.AddCommand(cmd)
}

func runList(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	keysOnly, _ := cmd.Flags().GetBool("keys-only")

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	entries, err := s.List(cmd.Context(), model.Category(category))
	if err != nil {
		exitErr("list", err)
	}

	if keysOnly {
		for _, e := range entries {
			fmt.Println(e.Key)
		}
		return
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
