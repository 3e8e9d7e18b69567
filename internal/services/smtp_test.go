package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/mail"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/marksheet/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP is a minimal SMTP server that records what clients send.
type fakeSMTP struct {
	auth   bool   // advertise AUTH PLAIN
	reject string // command prefix answered with 550

	mu       sync.Mutex
	commands []string
	data     string
}

func startFakeSMTP(t *testing.T, f *fakeSMTP) shared.SMTPConfig {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go f.serve(conn)
		}
	}()

	return shared.SMTPConfig{Host: "127.0.0.1", Port: l.Addr().(*net.TCPAddr).Port}
}

func (f *fakeSMTP) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	reply := func(s string) { fmt.Fprintf(conn, "%s\r\n", s) }

	reply("220 fake.local ESMTP")
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		cmd := strings.TrimRight(line, "\r\n")
		f.mu.Lock()
		f.commands = append(f.commands, cmd)
		f.mu.Unlock()

		verb, _, _ := strings.Cut(strings.ToUpper(cmd), " ")
		switch {
		case f.reject != "" && strings.HasPrefix(cmd, f.reject):
			reply("550 5.1.1 mailbox unavailable")
		case verb == "EHLO":
			reply("250-fake.local")
			if f.auth {
				reply("250-AUTH PLAIN")
			}
			reply("250 8BITMIME")
		case verb == "AUTH":
			reply("235 2.7.0 accepted")
		case verb == "DATA":
			reply("354 end with <CRLF>.<CRLF>")
			var body strings.Builder
			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}
				if strings.TrimRight(l, "\r\n") == "." {
					break
				}
				body.WriteString(l)
			}
			f.mu.Lock()
			f.data = body.String()
			f.mu.Unlock()
			reply("250 2.0.0 queued")
		case verb == "QUIT":
			reply("221 2.0.0 bye")
			return
		default:
			reply("250 ok")
		}
	}
}

// sawCommand reports whether any received command starts with prefix.
func (f *fakeSMTP) sawCommand(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.commands {
		if strings.HasPrefix(strings.ToUpper(c), prefix) {
			return true
		}
	}
	return false
}

func (f *fakeSMTP) received() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

func TestComposeMessage(t *testing.T) {
	sender := Sender{Address: "results@school.example", School: "Springfield"}
	d := testDelivery()
	d.Document = bytes.Repeat([]byte("%PDF"), 40)

	composed, err := composeMessage(sender, d, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var raw bytes.Buffer
	_, err = composed.WriteTo(&raw)
	require.NoError(t, err)

	msg, err := mail.ReadMessage(&raw)
	require.NoError(t, err)

	to, err := msg.Header.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "ana@example.com", to[0].Address)

	from, err := msg.Header.AddressList("From")
	require.NoError(t, err)
	assert.Equal(t, "results@school.example", from[0].Address)
	assert.Equal(t, "Springfield", from[0].Name)

	dec := new(mime.WordDecoder)
	subject, err := dec.DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Statement of Marks - Term 1", subject)

	date, err := msg.Header.Date()
	require.NoError(t, err)
	assert.True(t, date.Equal(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])

	text, err := mr.NextPart()
	require.NoError(t, err)
	textBody, _ := io.ReadAll(text)
	assert.Contains(t, string(textBody), "Dear Ana Lima,")

	attachment, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, d.Filename, attachment.FileName())

	encoded, _ := io.ReadAll(attachment)
	for _, line := range strings.Split(strings.TrimSpace(string(encoded)), "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(string(encoded)), ""))
	require.NoError(t, err)
	assert.Equal(t, d.Document, decoded)

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSMTPDispatcher(t *testing.T) {
	sender := Sender{Address: "results@school.example", School: "Springfield"}

	t.Run("Delivers Through Server", func(t *testing.T) {
		srv := &fakeSMTP{auth: true}
		cfg := startFakeSMTP(t, srv)
		cfg.Username, cfg.Password = "results", "secret"

		require.NoError(t, NewSMTPDispatcher(cfg, sender).Send(context.Background(), testDelivery()))
		assert.True(t, srv.sawCommand("AUTH PLAIN"))
		assert.True(t, srv.sawCommand("MAIL FROM:<RESULTS@SCHOOL.EXAMPLE>"))
		assert.True(t, srv.sawCommand("RCPT TO:<ANA@EXAMPLE.COM>"))
		assert.Contains(t, srv.received(), "Dear Ana Lima,")
		assert.Contains(t, srv.received(), "marksheet_s-101_Term_1.pdf")
	})

	t.Run("No Auth Without Username", func(t *testing.T) {
		srv := &fakeSMTP{}
		cfg := startFakeSMTP(t, srv)

		require.NoError(t, NewSMTPDispatcher(cfg, sender).Send(context.Background(), testDelivery()))
		assert.False(t, srv.sawCommand("AUTH"))
		assert.NotEmpty(t, srv.received())
	})

	t.Run("Credentials Without Server Auth", func(t *testing.T) {
		srv := &fakeSMTP{}
		cfg := startFakeSMTP(t, srv)
		cfg.Username, cfg.Password = "results", "secret"

		err := NewSMTPDispatcher(cfg, sender).Send(context.Background(), testDelivery())
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrAuthFailed)
		assert.False(t, srv.sawCommand("MAIL FROM"))
		assert.Empty(t, srv.received())
	})

	t.Run("Server Error", func(t *testing.T) {
		srv := &fakeSMTP{reject: "RCPT TO"}
		cfg := startFakeSMTP(t, srv)

		err := NewSMTPDispatcher(cfg, sender).Send(context.Background(), testDelivery())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ana@example.com")
		assert.Empty(t, srv.received())
	})

	t.Run("Empty Address", func(t *testing.T) {
		s := NewSMTPDispatcher(shared.SMTPConfig{Host: "127.0.0.1", Port: 25}, sender)
		d := testDelivery()
		d.Address = ""

		err := s.Send(context.Background(), d)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("Unreachable Server", func(t *testing.T) {
		s := NewSMTPDispatcher(shared.SMTPConfig{Host: "127.0.0.1", Port: 1}, sender)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		assert.Error(t, s.Send(ctx, testDelivery()))
	})
}
