package email

import (
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"gopkg.in/gomail.v2"
)

// ErrStartTLSUnsupported is returned when UseTLS is set and the server does
// not advertise STARTTLS.
var ErrStartTLSUnsupported = errors.New("server does not support STARTTLS")

// GomailDialer opens SMTP sessions with gomail.
//
// UseSSL selects implicit TLS. UseTLS requires STARTTLS: the server is asked
// for its extensions first and the dial fails if STARTTLS is missing. With
// neither flag gomail still upgrades when the server offers it.
type GomailDialer struct {
	// LocalName is sent in HELO/EHLO; gomail uses "localhost" when empty.
	LocalName string
	Timeout   time.Duration
}

func NewGomailDialer() *GomailDialer {
	return &GomailDialer{Timeout: 10 * time.Second}
}

func (g *GomailDialer) Dial(cfg TransportConfig) (Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.UseTLS && !cfg.UseSSL {
		if err := g.requireStartTLS(cfg); err != nil {
			return nil, fmt.Errorf("dial %s:%d: %w", cfg.Host, cfg.Port, err)
		}
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseSSL
	d.LocalName = g.LocalName

	sc, err := d.Dial()
	if err != nil {
		return nil, fmt.Errorf("dial %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &gomailTransport{sc: sc}, nil
}

// requireStartTLS opens a throwaway session and checks the EHLO reply.
func (g *GomailDialer) requireStartTLS(cfg TransportConfig) error {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)), timeout)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(timeout))

	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	localName := g.LocalName
	if localName == "" {
		localName = "localhost"
	}
	if err := c.Hello(localName); err != nil {
		return err
	}
	ok, _ := c.Extension("STARTTLS")
	_ = c.Quit()
	if !ok {
		return ErrStartTLSUnsupported
	}
	return nil
}

type gomailTransport struct {
	sc gomail.SendCloser
}

func (t *gomailTransport) Send(msg *Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}
	return gomail.Send(t.sc, m)
}

func (t *gomailTransport) Close() error {
	return t.sc.Close()
}
