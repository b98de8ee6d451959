package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relaykit/wsrelay/internal/config"
	"github.com/relaykit/wsrelay/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay server",
	Long: `Start the relay server. Every frame received on any connection is
relayed to every connected peer, including the one that sent it.

The server always speaks WebSocket on /ws; a framed TCP listener can be
enabled alongside it with --tcp-listen or the tcp_listen_addr config key.

Examples:
  wsrelay serve                                # WebSocket on :8080
  wsrelay serve --listen :9000                 # WebSocket on :9000
  wsrelay serve --tcp-listen :9100             # plus framed TCP on :9100
  wsrelay serve --config /etc/wsrelay.yaml     # explicit config file`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "HTTP/WebSocket listen address (overrides config)")
	serveCmd.Flags().String("tcp-listen", "", "framed TCP listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("listen"); addr != "" {
		cfg.ListenAddr = addr
	}
	if addr, _ := cmd.Flags().GetString("tcp-listen"); addr != "" {
		cfg.TCPListenAddr = addr
	}

	log := newLogger(cfg.Log)
	srv := server.New(cfg, log)

	if err := srv.Start(); err != nil {
		log.Error("startup failed", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	stop()

	log.Info("signal received, shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
