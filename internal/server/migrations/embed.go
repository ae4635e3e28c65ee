// Package migrations embeds the goose SQL migrations for the API server
// schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
