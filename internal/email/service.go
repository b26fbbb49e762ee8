package email

import (
	"fmt"
)

// TransportConfig holds the connection parameters of one SMTP session.
type TransportConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	UseSSL   bool
}

// Message is a composed multipart email: TextBody is the primary part and
// HTMLBody, when set, is attached as the text/html alternative.
type Message struct {
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Transport is an open mail connection.
type Transport interface {
	Send(msg *Message) error
	Close() error
}

// Dialer opens a Transport for the given configuration.
type Dialer interface {
	Dial(cfg TransportConfig) (Transport, error)
}

// Validate reports configurations no SMTP session can use.
func (c TransportConfig) Validate() error {
	if c.UseTLS && c.UseSSL {
		return fmt.Errorf("EMAIL_USE_TLS and EMAIL_USE_SSL are mutually exclusive, set only one of those settings to true")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}
