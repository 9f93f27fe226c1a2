package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/sidekick/internal/channel"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check store and channel health",
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	status := map[string]interface{}{
		"memory":         s.Name(),
		"memory_healthy": s.HealthCheck(cmd.Context()),
	}

	if cfg.Channels.Slack.BotToken != "" {
		ch, err := channel.New("slack", cfg)
		if err != nil {
			exitErr("status", err)
		}
		status["slack_healthy"] = ch.HealthCheck(cmd.Context())
	}

	b, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(b))
}
