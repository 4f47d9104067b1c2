// Package migrations applies the file-based schema migrations in
// ./migrations.
package migrations

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	migrationsDir  = "migrations"
	metadataTable  = "schema_migrations_migrate"
	schemaProbeSQL = `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)`
)

// RunMigrations migrates the database up to the latest version. A database
// that already carries the schema (the games table exists) but has no
// migrate metadata is baselined to the newest migration first, so the same
// startup path works against both fresh and pre-provisioned databases.
func RunMigrations(databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL is empty")
	}

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("open db for migrations: %w", err)
	}
	defer sqlDB.Close()

	driver, err := pg.WithInstance(sqlDB, &pg.Config{MigrationsTable: metadataTable})
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if needsBaseline(sqlDB) {
		if latest := latestMigrationVersion(migrationsDir); latest > 0 {
			log.Printf("[MIGRATE] baselining existing schema to version %d", latest)
			if ferr := m.Force(int(latest)); ferr != nil {
				log.Printf("[MIGRATE] force to version %d failed: %v", latest, ferr)
			}
		}
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}

	log.Printf("[MIGRATE] schema is up to date")
	return nil
}

// needsBaseline reports whether the schema exists without migrate metadata.
func needsBaseline(sqlDB *sql.DB) bool {
	var schemaExists bool
	if err := sqlDB.QueryRow(schemaProbeSQL, "games").Scan(&schemaExists); err != nil || !schemaExists {
		return false
	}
	var metadataExists bool
	if err := sqlDB.QueryRow(schemaProbeSQL, metadataTable).Scan(&metadataExists); err != nil {
		return false
	}
	return !metadataExists
}

// latestMigrationVersion returns the highest numeric version prefix
// (e.g. 000002_) among the migration files, 0 when none are found.
func latestMigrationVersion(dir string) int64 {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}

	re := regexp.MustCompile(`^0*([0-9]+)_`)
	var max int64
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(f.Name())
		if len(m) < 2 {
			continue
		}
		if v, _ := strconv.ParseInt(m[1], 10, 64); v > max {
			max = v
		}
	}
	return max
}
