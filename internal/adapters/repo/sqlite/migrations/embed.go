package migrations

import "embed"

// FS contains the embedded karma store migrations.
//
//go:embed *.sql
var FS embed.FS
