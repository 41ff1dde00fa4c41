package broadcast

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ettorre/wordarena/internal/testutil"
)

func TestShareDeliversDatagram(t *testing.T) {
	// Plain loopback UDP stands in for the multicast group; the wire
	// format is identical.
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer listener.Close()

	port := listener.LocalAddr().(*net.UDPAddr).Port
	sender, err := NewSender("127.0.0.1", port, testutil.NopLogger())
	require.NoError(t, err)

	sent := SharedGame{
		Username:         "alice",
		Hints:            []string{"XX?++++XXX", "++++++++++"},
		RemainingGuesses: 10,
		Won:              true,
	}
	require.NoError(t, sender.Share(sent))

	require.NoError(t, listener.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 2048)
	n, _, err := listener.ReadFromUDP(buf)
	require.NoError(t, err)

	var received SharedGame
	require.NoError(t, json.Unmarshal(buf[:n], &received))
	assert.Equal(t, sent, received)
}

func TestNewSenderBadGroup(t *testing.T) {
	_, err := NewSender("not-a-host-name.invalid", 9999, testutil.NopLogger())
	assert.Error(t, err)
}
