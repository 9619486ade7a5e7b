package contact

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abuelmaaref/portfolio/internal/storage"
)

type fakeMailer struct {
	err  error
	sent []Submission
}

func (f *fakeMailer) Send(_ context.Context, sub Submission) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sub)
	return nil
}

func setupService(t *testing.T, mailer Mailer) (*Service, *Repository) {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewRepository(db)
	return NewService(repo, mailer, nil), repo
}

func validSubmission() Submission {
	return Submission{Name: " Ada ", Email: "ada@example.com", Message: "Hello there\n"}
}

func TestSubmissionValidate(t *testing.T) {
	cases := map[string]Submission{
		"empty name":      {Name: "", Email: "a@b.co", Message: "hi"},
		"long name":       {Name: strings.Repeat("x", maxNameLen+1), Email: "a@b.co", Message: "hi"},
		"multiline name":  {Name: "a\r\nBcc: x@y.z", Email: "a@b.co", Message: "hi"},
		"bad email":       {Name: "a", Email: "not-an-email", Message: "hi"},
		"empty message":   {Name: "a", Email: "a@b.co", Message: ""},
		"long message":    {Name: "a", Email: "a@b.co", Message: strings.Repeat("x", maxMessageLen+1)},
		"email injection": {Name: "a", Email: "a@b.co\r\nBcc: x@y.z", Message: "hi"},
	}
	for name, sub := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, sub.Validate(), ErrInvalid)
		})
	}

	assert.NoError(t, validSubmission().Normalize().Validate())
}

func TestSubmitStoresAndSends(t *testing.T) {
	mailer := &fakeMailer{}
	svc, repo := setupService(t, mailer)
	ctx := context.Background()

	msg, err := svc.Submit(ctx, validSubmission())
	require.NoError(t, err)
	assert.True(t, msg.Delivered)
	assert.Equal(t, "Ada", msg.Name)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Hello there", mailer.sent[0].Message)

	stored, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Delivered)
	assert.Equal(t, msg.ID, stored[0].ID)
}

func TestSubmitKeepsMessageWhenMailFails(t *testing.T) {
	boom := errors.New("smtp down")
	svc, repo := setupService(t, &fakeMailer{err: boom})
	ctx := context.Background()

	msg, err := svc.Submit(ctx, validSubmission())
	assert.ErrorIs(t, err, boom)
	assert.NotZero(t, msg.ID)

	total, undelivered, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), undelivered)
}

func TestSubmitRejectsInvalidWithoutStoring(t *testing.T) {
	svc, repo := setupService(t, &fakeMailer{})
	ctx := context.Background()

	_, err := svc.Submit(ctx, Submission{Name: "a", Email: "nope", Message: "hi"})
	assert.ErrorIs(t, err, ErrInvalid)

	msgs, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	total, _, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSMTPMailerRequiresCredentials(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: "587"})
	assert.ErrorIs(t, m.Send(context.Background(), validSubmission()), ErrMailerNotConfigured)
}

func TestSMTPMailerComposesMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: "587", User: "me@example.com", Password: "pw"})

	var gotAddr string
	var gotTo []string
	var gotMsg string
	m.send = func(ctx context.Context, addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "relays are always bounded")
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Equal(t, "me@example.com", from)
		return nil
	}

	sub := validSubmission().Normalize()
	require.NoError(t, m.Send(context.Background(), sub))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"me@example.com"}, gotTo, "recipient defaults to the SMTP user")
	assert.Contains(t, gotMsg, "Subject: Portfolio Contact: Ada\r\n")
	assert.Contains(t, gotMsg, "Reply-To: ada@example.com\r\n")
	assert.Contains(t, gotMsg, "Hello there")
}

func TestSMTPMailerWrapsSendError(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "h", Port: "25", User: "u", Password: "p", To: "t@example.com"})
	m.send = func(context.Context, string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }

	err := m.Send(context.Background(), validSubmission())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send")
}

// fakeRelay is a scripted SMTP server that accepts one message.
func fakeRelay(t *testing.T) (addr string, received <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		reply("220 localhost ESMTP")
		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- data.String()
					reply("250 queued")
					continue
				}
				data.WriteString(line)
				continue
			}
			switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
			case strings.HasPrefix(cmd, "EHLO"):
				reply("250-localhost")
				reply("250 AUTH PLAIN")
			case strings.HasPrefix(cmd, "AUTH"):
				reply("235 authenticated")
			case strings.HasPrefix(cmd, "DATA"):
				inData = true
				reply("354 go ahead")
			case strings.HasPrefix(cmd, "QUIT"):
				reply("221 bye")
				return
			default:
				reply("250 ok")
			}
		}
	}()
	return ln.Addr().String(), out
}

func TestSMTPMailerDeliversThroughRelay(t *testing.T) {
	addr, received := fakeRelay(t)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	m := NewSMTPMailer(SMTPConfig{Host: host, Port: port, User: "me@example.com", Password: "pw", To: "inbox@example.com"})
	require.NoError(t, m.Send(context.Background(), validSubmission().Normalize()))

	select {
	case msg := <-received:
		assert.Contains(t, msg, "Subject: Portfolio Contact: Ada")
	case <-time.After(5 * time.Second):
		t.Fatal("relay received nothing")
	}
}

func TestSMTPMailerGivesUpOnSilentRelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	// Accept connections and never send a greeting.
	var mu sync.Mutex
	var held []net.Conn
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range held {
			_ = c.Close()
		}
	})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			held = append(held, conn)
			mu.Unlock()
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	m := NewSMTPMailer(SMTPConfig{Host: host, Port: port, User: "me@example.com", Password: "pw"})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = m.Send(ctx, validSubmission().Normalize())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send")
	assert.Less(t, time.Since(start), 5*time.Second)
}
