package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/sidekick/internal/agent"
	"github.com/rcliao/sidekick/internal/channel"
	"github.com/rcliao/sidekick/internal/provider"
)

func init() {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run the assistant against the configured channels",
		Run:   runAgent,
	}

	RootCmd.AddCommand(cmd)
}

func runAgent(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	s := openStore(cfg)
	defer s.Close()

	p, err := provider.New(cfg.DefaultProvider, cfg.APIKey)
	if err != nil {
		exitErr("create provider", err)
	}

	var channels []channel.Channel
	if cfg.Channels.Slack.BotToken != "" {
		ch, err := channel.New("slack", cfg)
		if err != nil {
			exitErr("create channel", err)
		}
		channels = append(channels, ch)
	}
	if len(channels) == 0 {
		exitErr("agent", fmt.Errorf("no channels configured"))
	}

	d := &agent.Dispatcher{
		Store:       s,
		Provider:    p,
		Channels:    channels,
		Model:       cfg.DefaultModel,
		Temperature: cfg.DefaultTemperature,
		AutoSave:    cfg.Memory.AutoSave,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		exitErr("agent", err)
	}
}
