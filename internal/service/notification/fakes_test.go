package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/jwalitptl/reset-mailer/internal/email"
	"github.com/jwalitptl/reset-mailer/internal/model"
)

var errBoom = errors.New("boom")

// ---- renderer ----

type fakeRenderer struct {
	lastName string
	lastVars map[string]interface{}
	out      string
	err      error
}

func (r *fakeRenderer) Render(name string, vars map[string]interface{}) (string, error) {
	r.lastName = name
	r.lastVars = vars
	if r.err != nil {
		return "", r.err
	}
	return r.out, nil
}

// ---- configuration store ----

type fakeConfigs struct {
	values     model.ConfigurationValues
	err        error
	calls      int
	lastPrefix string
}

func (c *fakeConfigs) ListByPrefix(_ context.Context, prefix string) (model.ConfigurationValues, error) {
	c.calls++
	c.lastPrefix = prefix
	if c.err != nil {
		return nil, c.err
	}
	return c.values, nil
}

// ---- transport ----

type fakeTransport struct {
	mu      sync.Mutex
	sent    []*email.Message
	sendErr error
	closed  int
}

func (t *fakeTransport) Send(msg *email.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed++
	return nil
}

type fakeDialer struct {
	transport *fakeTransport
	dialErr   error
	configs   []email.TransportConfig
	// validate runs TransportConfig.Validate like the real dialer does.
	validate bool
}

func (d *fakeDialer) Dial(cfg email.TransportConfig) (email.Transport, error) {
	d.configs = append(d.configs, cfg)
	if d.validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	return d.transport, nil
}
