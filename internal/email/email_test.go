package email

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text is unchanged", "Reset your password", "Reset your password"},
		{"plain text with entities is unchanged", "a &amp; b", "a &amp; b"},
		{"plain text with lone angle bracket", "1 < 2 and 3 > 2", "1 < 2 and 3 > 2"},
		{"tags removed", "<p>Hi <b>Ada</b>,</p>", "Hi Ada,"},
		{"attributes removed with tag", `<a href="https://x/?a=1&amp;b=2">link</a>`, "link"},
		{"comments and doctype removed", "<!DOCTYPE html><!-- c --><p>x</p>", "x"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.in))
		})
	}
}

func TestStripTags_Idempotent(t *testing.T) {
	html := "<html><body><h1>Title</h1>\n<p>Body &amp; more</p></body></html>"
	once := StripTags(html)
	assert.Equal(t, once, StripTags(once))
}

func TestTemplateRenderer_ForgotPassword(t *testing.T) {
	r := NewTemplateRenderer()

	out, err := r.Render("emails/auth/forgot_password.html", map[string]interface{}{
		"first_name":          "Ada",
		"forgot_password_url": "https://app.example.com/accounts/reset-password/?uidb64=dWlk&token=tok123",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Hi Ada,")
	assert.Contains(t, out, "https://app.example.com/accounts/reset-password/?uidb64=dWlk&amp;token=tok123")
}

func TestTemplateRenderer_Errors(t *testing.T) {
	r := NewTemplateRendererFS(fstest.MapFS{
		"bad.html":  {Data: []byte("{{ .x ")},
		"call.html": {Data: []byte("{{ call .fn }}")},
	})

	_, err := r.Render("missing.html", nil)
	assert.Error(t, err)

	_, err = r.Render("bad.html", nil)
	assert.Error(t, err)

	_, err = r.Render("call.html", map[string]interface{}{"fn": "not a func"})
	assert.Error(t, err)
}

func TestTemplateRenderer_CachesParsed(t *testing.T) {
	fsys := fstest.MapFS{"hello.html": {Data: []byte("hello {{ .name }}")}}
	r := NewTemplateRendererFS(fsys)

	out, err := r.Render("hello.html", map[string]interface{}{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "hello Ada", out)

	delete(fsys, "hello.html")
	out, err = r.Render("hello.html", map[string]interface{}{"name": "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "hello Grace", out)
}

func TestTransportConfig_Validate(t *testing.T) {
	assert.NoError(t, TransportConfig{Port: 587, UseTLS: true}.Validate())
	assert.NoError(t, TransportConfig{Port: 465, UseSSL: true}.Validate())
	assert.Error(t, TransportConfig{Port: 587, UseTLS: true, UseSSL: true}.Validate())
	assert.Error(t, TransportConfig{Port: 0}.Validate())
	assert.Error(t, TransportConfig{Port: 70000}.Validate())
}

// startTestSMTPServer accepts one session that never offers STARTTLS or AUTH
// and records the DATA section of every message it receives.
func startTestSMTPServer(t *testing.T) (port int, received func() []string, stop func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		msgs []string
		wg   sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		fmt.Fprintf(conn, "220 localhost Test SMTP Service Ready\r\n")
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimSpace(line)
			switch {
			case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
				fmt.Fprintf(conn, "250-localhost Hello\r\n250 OK\r\n")
			case strings.HasPrefix(line, "DATA"):
				fmt.Fprintf(conn, "354 End data with <CR><LF>.<CR><LF>\r\n")
				var data strings.Builder
				for {
					dline, derr := r.ReadString('\n')
					if derr != nil || strings.TrimSpace(dline) == "." {
						break
					}
					data.WriteString(dline)
				}
				mu.Lock()
				msgs = append(msgs, data.String())
				mu.Unlock()
				fmt.Fprintf(conn, "250 OK: queued as 12345\r\n")
			case strings.HasPrefix(line, "QUIT"):
				fmt.Fprintf(conn, "221 Bye\r\n")
				return
			default:
				fmt.Fprintf(conn, "250 OK\r\n")
			}
		}
	}()

	port = ln.Addr().(*net.TCPAddr).Port
	received = func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), msgs...)
	}
	stop = func() {
		ln.Close()
		wg.Wait()
	}
	return port, received, stop
}

func TestGomailDialer_SendMultipart(t *testing.T) {
	port, received, stop := startTestSMTPServer(t)

	tr, err := NewGomailDialer().Dial(TransportConfig{Host: "127.0.0.1", Port: port})
	require.NoError(t, err)

	err = tr.Send(&Message{
		From:     "noreply@example.com",
		To:       []string{"ada@example.com"},
		Subject:  "Reset Your Password - Plane",
		TextBody: "plain body",
		HTMLBody: "<p>html body</p>",
	})
	require.NoError(t, err)
	require.NoError(t, tr.Close())
	stop()

	msgs := received()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "To: ada@example.com")
	assert.Contains(t, msgs[0], "Subject: Reset Your Password - Plane")
	assert.Contains(t, msgs[0], "multipart/alternative")
	assert.Contains(t, msgs[0], "text/plain")
	assert.Contains(t, msgs[0], "text/html")
	assert.True(t, strings.Index(msgs[0], "text/plain") < strings.Index(msgs[0], "text/html"))
}

func TestGomailDialer_RequiresStartTLS(t *testing.T) {
	port, received, stop := startTestSMTPServer(t)

	_, err := NewGomailDialer().Dial(TransportConfig{Host: "127.0.0.1", Port: port, UseTLS: true})
	stop()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStartTLSUnsupported)
	assert.Empty(t, received(), "nothing may be sent in plaintext")
}

func TestGomailDialer_RejectsConflictingFlags(t *testing.T) {
	_, err := NewGomailDialer().Dial(TransportConfig{Host: "127.0.0.1", Port: 587, UseTLS: true, UseSSL: true})
	assert.Error(t, err)
}

func TestGomailDialer_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = NewGomailDialer().Dial(TransportConfig{Host: "127.0.0.1", Port: port, UseTLS: true})
	assert.Error(t, err)
}
