package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaykit/wsrelay/internal/client"
)

var sendCmd = &cobra.Command{
	Use:   "send URL [MESSAGE...]",
	Short: "Relay one or more messages and exit",
	Long: `Connect to a relay, send the given messages as text frames, and
disconnect. With no message arguments, lines are read from stdin instead.

Examples:
  wsrelay send ws://localhost:8080/ws "hello everyone"
  tail -f app.log | wsrelay send ws://localhost:8080/ws`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().Duration("timeout", 10*time.Second, "dial timeout")
}

func runSend(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	c, err := client.Dial(ctx, args[0], newLogger(defaultLogConfig()))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if len(args) > 1 {
		for _, msg := range args[1:] {
			if err := c.SendText(msg); err != nil {
				return fmt.Errorf("sending message: %w", err)
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if err := c.SendText(scanner.Text()); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
	}
	return scanner.Err()
}
