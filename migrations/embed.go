// Package migrations embeds the SQL schema applied at startup.
package migrations

import (
	"embed"

	coredatabase "github.com/mohammaddehghani/TelegBotCardNum/core/database"
)

//go:embed *.sql
var files embed.FS

// Source returns the embedded migrations for core/database.RunMigrations.
func Source() coredatabase.Migrations {
	return coredatabase.Migrations{FS: files, Dir: "."}
}
