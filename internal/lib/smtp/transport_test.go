package smtp

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-market/internal/config"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serveSMTP отвечает на минимальный набор команд без STARTTLS и AUTH.
func serveSMTP(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		_, _ = io.WriteString(conn, "220 localhost ESMTP\r\n")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"):
				_, _ = io.WriteString(conn, "250-localhost\r\n250 8BITMIME\r\n")
			case strings.HasPrefix(cmd, "QUIT"):
				_, _ = io.WriteString(conn, "221 bye\r\n")
				return
			default:
				_, _ = io.WriteString(conn, "250 ok\r\n")
			}
		}
	}()
	return ln.Addr().String()
}

func TestTransport_Connect(t *testing.T) {
	host, port, err := net.SplitHostPort(serveSMTP(t))
	require.NoError(t, err)

	tr := NewTransport(config.SMTP{Host: host, Port: port}, newNoopLogger())
	client, err := tr.Connect()
	require.NoError(t, err)

	assert.NoError(t, client.Mail("shop@example.com"))
	assert.NoError(t, client.Quit())
}

func TestTransport_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	tr := NewTransport(config.SMTP{Host: host, Port: port}, newNoopLogger())
	_, err = tr.Connect()
	assert.Error(t, err)
}

func TestTransport_Sender(t *testing.T) {
	tr := NewTransport(config.SMTP{User: "mailer", From: "shop@example.com"}, newNoopLogger())
	assert.Equal(t, "shop@example.com", tr.Sender())

	tr = NewTransport(config.SMTP{User: "mailer"}, newNoopLogger())
	assert.Equal(t, "mailer", tr.Sender())
}
