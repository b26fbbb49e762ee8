package model

import (
	"time"

	"github.com/google/uuid"
)

// InstanceConfiguration is one deployment setting held by the configuration
// store, e.g. EMAIL_HOST.
type InstanceConfiguration struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Key         string    `db:"key" json:"key"`
	Value       *string   `db:"value" json:"value"`
	Category    string    `db:"category" json:"category"`
	IsEncrypted bool      `db:"is_encrypted" json:"is_encrypted"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ConfigurationValues maps configuration keys to their values.
type ConfigurationValues map[string]string

// Get returns the value for key, or def when the key is absent.
func (v ConfigurationValues) Get(key, def string) string {
	if val, ok := v[key]; ok {
		return val
	}
	return def
}
