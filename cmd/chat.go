package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/relaykit/wsrelay/internal/client"
	"github.com/relaykit/wsrelay/internal/relay"
	"github.com/relaykit/wsrelay/pkg/wire"
)

var chatNick string

var chatCmd = &cobra.Command{
	Use:   "chat URL",
	Short: "Interactive chat over a relay",
	Long: `Join a relay as a chat participant. Lines typed on stdin are sent to
every connected peer wrapped in the chat envelope; envelopes from other
participants are printed as they arrive.

The relay itself only moves frames around. The chat envelope, including
join and leave announcements, is a convention between chat clients.

Example:
  wsrelay chat ws://localhost:8080/ws --nick alice`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatNick, "nick", "", "display name (required)")
	_ = chatCmd.MarkFlagRequired("nick")
}

func runChat(cmd *cobra.Command, args []string) error {
	dialCtx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	c, err := client.Dial(dialCtx, args[0], newLogger(defaultLogConfig()))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	go printEnvelopes(c.Messages())

	if err := c.SendBinary(wire.Join(chatNick).Encode()); err != nil {
		return fmt.Errorf("announcing join: %w", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" {
			break
		}
		if err := c.SendBinary(wire.Chat(chatNick, text).Encode()); err != nil {
			return fmt.Errorf("sending message: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if err := c.SendBinary(wire.Leave(chatNick).Encode()); err != nil {
		return fmt.Errorf("announcing leave: %w", err)
	}
	return nil
}

// printEnvelopes renders relayed chat envelopes until the connection ends.
// Frames that are not envelopes are shown raw so plain send/tail users
// still show up in the conversation.
func printEnvelopes(messages <-chan relay.Message) {
	for msg := range messages {
		if msg.Type == relay.TextMessage {
			fmt.Printf("(raw) %s\n", string(msg.Payload))
			continue
		}

		env, err := wire.Decode(msg.Payload)
		if err != nil {
			fmt.Printf("[undecodable frame, %d bytes]\n", len(msg.Payload))
			continue
		}

		switch env.Kind {
		case wire.KindChat:
			fmt.Printf("[%s] %s\n", env.Sender, env.Text())
		case wire.KindJoin:
			fmt.Printf("*** %s joined ***\n", env.Sender)
		case wire.KindLeave:
			fmt.Printf("*** %s left ***\n", env.Sender)
		default:
			fmt.Printf("*** %s sent an unknown event ***\n", env.Sender)
		}
	}
}
