// Package migrations embeds the goose SQL migrations applied at start-up.
package migrations

import "embed"

// FS holds every migration file in this directory.
//
//go:embed *.sql
var FS embed.FS
