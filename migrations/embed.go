// Package migrations holds the repository store schema, embedded into the binary.
package migrations

import "embed"

// FS contains the numbered golang-migrate SQL files.
//
//go:embed *.sql
var FS embed.FS
