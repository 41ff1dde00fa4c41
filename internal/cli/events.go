package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream ranking notifications from the server",
		Long: `Connect to the server's notification endpoint and stream events
in real-time. The server pushes an event whenever the top of the
ranking changes.

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(cfg.NotifyURL, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// rankingEvent mirrors the server's notification payload
type rankingEvent struct {
	Event string   `json:"event"`
	Top   []string `json:"top"`
}

func streamEvents(url string, jsonOutput bool) error {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", url, err)
	}
	defer func() { _ = conn.Close() }()

	// Handle interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
			_ = conn.Close()
		case <-ctx.Done():
		}
	}()

	if !jsonOutput {
		fmt.Printf("Connected to %s\n", url)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}
		printEvent(data, jsonOutput)
	}
}

func printEvent(data []byte, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(string(data))
		return
	}

	var evt rankingEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		fmt.Println(string(data))
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Printf("[%s] %s: %s\n", timestamp, evt.Event, strings.Join(evt.Top, ", "))
}
