package migrations

import "embed"

// FS embeds the SQL migrations of every supported dialect.
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Dir returns the FS directory holding migrations for a dialect.
func Dir(postgres bool) string {
	if postgres {
		return "postgres"
	}
	return "sqlite"
}
