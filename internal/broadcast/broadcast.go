// Package broadcast sends game results to the multicast group that clients
// join to see each other's shared games.
package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
)

// SharedGame is the datagram payload for a shared result. Hints carry the
// per-guess mark strings; the secret word itself is never included.
type SharedGame struct {
	Username         string   `json:"username"`
	Hints            []string `json:"hints"`
	RemainingGuesses int      `json:"remainingGuesses"`
	Won              bool     `json:"won"`
}

// Sender writes result datagrams to a fixed multicast group.
type Sender struct {
	addr   *net.UDPAddr
	logger *slog.Logger
}

func NewSender(group string, port int, logger *slog.Logger) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", group, port))
	if err != nil {
		return nil, fmt.Errorf("resolving multicast group: %w", err)
	}
	return &Sender{
		addr:   addr,
		logger: logger.With(slog.String("component", "broadcast")),
	}, nil
}

// Share sends one result to the group. Delivery is fire-and-forget; an
// unreachable group is logged, not surfaced to the sharing player.
func (s *Sender) Share(game SharedGame) error {
	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encoding shared game: %w", err)
	}

	conn, err := net.DialUDP("udp", nil, s.addr)
	if err != nil {
		return fmt.Errorf("dialing multicast group: %w", err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("sending shared game: %w", err)
	}
	s.logger.Debug("shared game broadcast",
		slog.String("username", game.Username),
		slog.Bool("won", game.Won))
	return nil
}
