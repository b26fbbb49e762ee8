// Package migrations holds the schema the worker reads from.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
