package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/sidekick/internal/gateway"
	"github.com/rcliao/sidekick/internal/provider"
)

func init() {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Run the webhook HTTP gateway",
		Long:  "Serve GET /health and POST /webhook, forwarding webhook bodies to the provider.",
		Run:   runGateway,
	}

	cmd.Flags().String("host", "", "Bind host (default from config)")
	cmd.Flags().Int("port", 0, "Bind port (default from config)")

	RootCmd.AddCommand(cmd)
}

func runGateway(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	if host == "" {
		host = cfg.Gateway.Host
	}
	if port == 0 {
		port = cfg.Gateway.Port
	}

	s := openStore(cfg)
	defer s.Close()

	p, err := provider.New(cfg.DefaultProvider, cfg.APIKey)
	if err != nil {
		exitErr("create provider", err)
	}

	srv := &gateway.Server{
		Store:       s,
		Provider:    p,
		Model:       cfg.DefaultModel,
		Temperature: cfg.DefaultTemperature,
		AutoSave:    cfg.Memory.AutoSave,
		Version:     Version,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx, fmt.Sprintf("%s:%d", host, port)); err != nil {
		exitErr("gateway", err)
	}
}
