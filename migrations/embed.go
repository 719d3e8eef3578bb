// Package migrations provides embedded migration SQL files.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
