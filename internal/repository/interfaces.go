package repository

import (
	"context"

	"github.com/jwalitptl/reset-mailer/internal/model"
)

// ConfigurationRepository reads deployment settings. It is queried on every
// use and never caches.
type ConfigurationRepository interface {
	// ListByPrefix returns every key starting with prefix. Keys stored with a
	// NULL value are left out, so callers see them as absent.
	ListByPrefix(ctx context.Context, prefix string) (model.ConfigurationValues, error)
}
