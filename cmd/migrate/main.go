package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"redline/internal/config"
	"redline/internal/domain/comment"
	"redline/internal/domain/event"
	"redline/internal/domain/session"
	"redline/internal/domain/version"
	"redline/pkg/database"

	"gorm.io/gorm"
)

const usage = `
Redline - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Run all migrations (SQL + GORM)
  status      Show database connection status
  reset       Drop all tables and re-run migrations (DANGEROUS)

Flags:
  -migrations string   Path to migrations directory (default "migrations")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
  go run cmd/migrate/main.go reset
`

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}

	switch command {
	case "up":
		runMigrationsUp(db, *migrationsDir)
	case "status":
		showStatus(db)
	case "reset":
		runReset(db, *migrationsDir)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func models() []interface{} {
	return []interface{}{
		&session.Session{},
		&session.Participant{},
		&version.Version{},
		&comment.Comment{},
		&event.OutboxEvent{},
	}
}

func runMigrationsUp(db *gorm.DB, migrationsDir string) {
	log.Println("🚀 Running migrations UP...")

	if err := db.AutoMigrate(models()...); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	if err := database.ApplyRawMigrations(db, migrationsDir); err != nil {
		log.Fatalf("❌ Raw migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func showStatus(db *gorm.DB) {
	log.Println("🔍 Checking database status...")

	if err := database.HealthCheck(db); err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	tables := []string{"sessions", "participants", "versions", "comments", "outbox_events"}
	for _, table := range tables {
		if !db.Migrator().HasTable(table) {
			log.Printf("❌ Table %-20s does not exist", table)
			continue
		}
		var count int64
		_ = db.Table(table).Count(&count).Error
		log.Printf("✅ Table %-20s exists (%d rows)", table, count)
	}
}

func runReset(db *gorm.DB, migrationsDir string) {
	log.Println("⚠️  WARNING: This will DROP all tables and re-run migrations!")

	log.Println("🗑️  Dropping all tables...")
	if err := db.Migrator().DropTable(models()...); err != nil {
		log.Fatalf("❌ Failed to drop tables: %v", err)
	}

	runMigrationsUp(db, migrationsDir)
	log.Println("✅ Database reset completed!")
}
