// Package migrations embeds the goose SQL migrations for the booking service.
package migrations

import "embed"

// FS holds every *.sql migration in this directory
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory within FS passed to goose
const Dir = "."
