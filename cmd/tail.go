package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaykit/wsrelay/internal/client"
	"github.com/relaykit/wsrelay/internal/relay"
)

var tailCmd = &cobra.Command{
	Use:   "tail URL",
	Short: "Print every frame the relay broadcasts",
	Long: `Connect to a relay and print each relayed frame to stdout until
interrupted. Text frames are printed verbatim; binary frames are
summarized by size.

Example:
  wsrelay tail ws://localhost:8080/ws`,
	Args: cobra.ExactArgs(1),
	RunE: runTail,
}

func init() {
	rootCmd.AddCommand(tailCmd)
}

func runTail(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	c, err := client.Dial(dialCtx, args[0], newLogger(defaultLogConfig()))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-c.Messages():
			if !ok {
				return nil
			}
			switch msg.Type {
			case relay.TextMessage:
				fmt.Println(string(msg.Payload))
			case relay.BinaryMessage:
				fmt.Printf("[binary frame, %d bytes]\n", len(msg.Payload))
			}
		}
	}
}
