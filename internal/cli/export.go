package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/sidekick/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all memories as JSON",
		Run:   runExport,
	}

	cmd.Flags().String("category", "", "Only export this category")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	entries, err := s.List(cmd.Context(), model.Category(category))
	if err != nil {
		exitErr("export", err)
	}

	if len(entries) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
