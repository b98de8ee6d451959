package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench URL",
	Short: "Load-test a relay",
	Long: `Open many WebSocket connections to a relay, spread messages across
them, and measure delivery. Every message should come back once per
connection, sender included, so the expected receive count is
messages * connections.

The server's per-peer rate limit applies to bench traffic like any
other; raise it in the server config before aggressive runs.

Example:
  wsrelay bench ws://localhost:8080/ws --conns 50 --messages 1000`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().Int("conns", 10, "number of concurrent connections")
	benchCmd.Flags().Int("messages", 100, "total number of messages to send")
	benchCmd.Flags().Int("size", 64, "payload size in bytes")
	benchCmd.Flags().Duration("timeout", 30*time.Second, "overall run deadline")
}

func runBench(cmd *cobra.Command, args []string) error {
	url := args[0]
	conns, _ := cmd.Flags().GetInt("conns")
	messages, _ := cmd.Flags().GetInt("messages")
	size, _ := cmd.Flags().GetInt("size")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if conns < 1 || messages < 1 || size < 1 {
		return fmt.Errorf("conns, messages, and size must all be positive")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	sockets := make([]net.Conn, 0, conns)
	var readers sync.WaitGroup
	defer func() {
		for _, conn := range sockets {
			_ = wsutil.WriteClientMessage(conn, ws.OpClose, nil)
			_ = conn.Close()
		}
		readers.Wait()
	}()

	for i := 0; i < conns; i++ {
		conn, _, _, err := ws.Dial(ctx, url)
		if err != nil {
			return fmt.Errorf("dialing connection %d: %w", i+1, err)
		}
		sockets = append(sockets, conn)
	}

	var received atomic.Int64
	for _, conn := range sockets {
		readers.Add(1)
		go func(conn net.Conn) {
			defer readers.Done()
			for {
				if _, _, err := wsutil.ReadServerData(conn); err != nil {
					return
				}
				received.Add(1)
			}
		}(conn)
	}

	payload := bytes.Repeat([]byte("x"), size)
	expected := int64(messages) * int64(conns)
	start := time.Now()

	for i := 0; i < messages; i++ {
		conn := sockets[i%conns]
		if err := wsutil.WriteClientText(conn, payload); err != nil {
			return fmt.Errorf("sending message %d: %w", i+1, err)
		}
	}

	// Wait for the fan-out to drain or the deadline to pass.
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for received.Load() < expected {
		select {
		case <-ctx.Done():
			fmt.Printf("timed out: received %d of %d expected frames\n",
				received.Load(), expected)
			return nil
		case <-tick.C:
		}
	}
	elapsed := time.Since(start)

	got := received.Load()
	fmt.Printf("connections:  %d\n", conns)
	fmt.Printf("sent:         %d messages x %d bytes\n", messages, size)
	fmt.Printf("received:     %d of %d expected frames\n", got, expected)
	fmt.Printf("elapsed:      %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("throughput:   %.0f frames/sec\n", float64(got)/elapsed.Seconds())
	return nil
}
