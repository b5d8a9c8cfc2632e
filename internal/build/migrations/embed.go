// Package migrations holds the artifact schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
