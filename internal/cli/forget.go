package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "forget",
		Short: "Delete a memory",
		Run:   runForget,
	}

	cmd.Flags().StringP("key", "k", "", "Natural key (required)")
	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runForget(cmd *cobra.Command, args []string) {
	key, _ := cmd.Flags().GetString("key")

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	removed, err := s.Forget(cmd.Context(), key)
	if err != nil {
		exitErr("forget", err)
	}

	fmt.Printf(`{"ok":true,"key":%q,"removed":%t}`+"\n", key, removed)
}
