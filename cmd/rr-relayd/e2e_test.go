package main

import (
	"context"
	"encoding/binary"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-relay/internal/dns/config"
)

// freeUDPPort grabs an ephemeral UDP port and releases it for the relay to bind.
func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	require.NoError(t, conn.Close())
	return port
}

// rawQuery builds a wire-format query with one question.
func rawQuery(id uint16, qtype uint16, labels ...string) []byte {
	packet := make([]byte, 12)
	binary.BigEndian.PutUint16(packet[0:2], id)
	binary.BigEndian.PutUint16(packet[2:4], 0x0100)
	binary.BigEndian.PutUint16(packet[4:6], 1)
	for _, l := range labels {
		packet = append(packet, byte(len(l)))
		packet = append(packet, l...)
	}
	packet = append(packet, 0)
	tail := make([]byte, 4)
	binary.BigEndian.PutUint16(tail[0:2], qtype)
	binary.BigEndian.PutUint16(tail[2:4], 1)
	return append(packet, tail...)
}

// exchange sends a query and waits for the relay's reply on the same socket.
func exchange(t *testing.T, conn *net.UDPConn, query []byte) []byte {
	t.Helper()
	_, err := conn.Write(query)
	require.NoError(t, err)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	buf := make([]byte, 512)
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return buf[:n]
}

// TestE2E_Relay exercises the full relay over real UDP sockets: a local
// answer, a blacklist refusal, and a query forwarded through a fake upstream.
func TestE2E_Relay(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	// Setup the hosts table
	tempDir := t.TempDir()
	hostsFile := filepath.Join(tempDir, "hosts.txt")
	hostsContent := "211.68.69.240 bupt.edu.cn\n0.0.0.0 baidu.com\n"
	require.NoError(t, os.WriteFile(hostsFile, []byte(hostsContent), 0644))

	// Fake upstream resolver: echo every query back with QR set and one
	// answer count, leaving the rest of the payload untouched.
	upstream, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer upstream.Close()

	upstreamSeen := make(chan []byte, 4)
	go func() {
		buf := make([]byte, 512)
		for {
			n, addr, err := upstream.ReadFromUDP(buf)
			if err != nil {
				return
			}
			query := make([]byte, n)
			copy(query, buf[:n])
			upstreamSeen <- query

			reply := make([]byte, n)
			copy(reply, query)
			reply[2] |= 0x80
			if _, err := upstream.WriteToUDP(reply, addr); err != nil {
				return
			}
		}
	}()

	listenPort := freeUDPPort(t)
	bindPort := freeUDPPort(t)

	t.Setenv("DNS_LISTEN_ADDR", (&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: listenPort}).String())
	t.Setenv("DNS_UPSTREAM_BIND_ADDR", (&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: bindPort}).String())
	t.Setenv("DNS_UPSTREAM", upstream.LocalAddr().String())
	t.Setenv("DNS_HOSTS_PATH", hostsFile)
	t.Setenv("DNS_LOG_LEVEL", "error") // Reduce noise
	t.Setenv("DNS_ENV", "dev")

	cfg, err := config.Load()
	require.NoError(t, err)

	app, err := buildApplication(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appErr := make(chan error, 1)
	go func() {
		appErr <- app.Run(ctx)
	}()

	client, err := net.DialUDP("udp", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: listenPort})
	require.NoError(t, err)
	defer client.Close()

	// Local answer for a name in the hosts table.
	reply := exchange(t, client, rawQuery(0x1001, 1, "bupt", "edu", "cn"))
	assert.Equal(t, uint16(0x1001), binary.BigEndian.Uint16(reply[0:2]))
	assert.NotZero(t, reply[2]&0x80, "QR must be set on the reply")
	assert.Equal(t, byte(0), reply[3]&0x0F, "local answer carries RCODE 0")
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(reply[6:8]))
	assert.Equal(t, []byte{211, 68, 69, 240}, reply[len(reply)-4:])

	// Refusal for a blacklisted name.
	reply = exchange(t, client, rawQuery(0x1002, 1, "baidu", "com"))
	assert.Equal(t, uint16(0x1002), binary.BigEndian.Uint16(reply[0:2]))
	assert.Equal(t, byte(3), reply[3]&0x0F, "blacklisted name carries RCODE 3")
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(reply[6:8]))

	// Unknown name goes through the fake upstream and comes back under the
	// client's original ID.
	query := rawQuery(0x1003, 1, "apple", "com")
	reply = exchange(t, client, query)

	select {
	case forwarded := <-upstreamSeen:
		assert.NotEqual(t, uint16(0x1003), binary.BigEndian.Uint16(forwarded[0:2]),
			"upstream must see a rewritten ID")
		assert.Equal(t, query[2:], forwarded[2:])
	case <-time.After(time.Second):
		t.Fatal("upstream never saw the forwarded query")
	}

	assert.Equal(t, uint16(0x1003), binary.BigEndian.Uint16(reply[0:2]),
		"client gets its original ID back")
	assert.NotZero(t, reply[2]&0x80)
	assert.Equal(t, query[4:], reply[4:], "payload relayed verbatim")

	// Shutdown
	cancel()
	select {
	case err := <-appErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Application failed to shutdown")
	}
}
