package migrations

import (
	"context"
	"embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

var Migrations = migrate.NewMigrations()

// execFile returns a migration step running one embedded SQL file.
func execFile(name string) migrate.MigrationFunc {
	return func(ctx context.Context, db *bun.DB) error {
		script, err := sqlFiles.ReadFile("sql/" + name)
		if err != nil {
			return err
		}
		_, err = db.ExecContext(ctx, string(script))
		return err
	}
}

func dropTable(table string) migrate.MigrationFunc {
	return func(ctx context.Context, db *bun.DB) error {
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table+` CASCADE`)
		return err
	}
}
