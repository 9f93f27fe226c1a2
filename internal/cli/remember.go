package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/sidekick/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [content]",
		Short: "Store a memory",
		Long:  "Store a memory under a key. Content can be a positional arg or piped via stdin.",
		Run:   runRemember,
	}

	cmd.Flags().StringP("key", "k", "", "Natural key (required)")
	cmd.Flags().String("category", "core", "Category: core, daily, conversation, or any custom name")

	cmd.MarkFlagRequired("key")

	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	key, _ := cmd.Flags().GetString("key")
	category, _ := cmd.Flags().GetString("category")

	// Content: positional arg first, then stdin
	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		exitErr("remember", fmt.Errorf("content is required (positional arg or stdin)"))
	}

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	if err := s.Store(cmd.Context(), key, content, model.Category(category)); err != nil {
		exitErr("remember", err)
	}

	fmt.Printf(`{"ok":true,"key":%q}`+"\n", key)
}
