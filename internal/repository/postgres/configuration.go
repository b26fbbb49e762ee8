package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/reset-mailer/internal/model"
	"github.com/jwalitptl/reset-mailer/internal/repository"
)

type configurationRepository struct {
	BaseRepository
}

func NewConfigurationRepository(base BaseRepository) repository.ConfigurationRepository {
	return &configurationRepository{base}
}

func (r *configurationRepository) ListByPrefix(ctx context.Context, prefix string) (model.ConfigurationValues, error) {
	query := `
		SELECT key, value
		FROM instance_configurations
		WHERE key LIKE $1 ESCAPE '\'
		AND value IS NOT NULL
	`

	var rows []model.InstanceConfiguration
	if err := r.GetDB().SelectContext(ctx, &rows, query, likePrefix(prefix)); err != nil {
		return nil, fmt.Errorf("failed to list configuration by prefix %q: %w", prefix, err)
	}

	values := make(model.ConfigurationValues, len(rows))
	for _, row := range rows {
		if row.Value != nil {
			values[row.Key] = *row.Value
		}
	}
	return values, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePrefix turns prefix into a LIKE pattern matching it literally.
func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
