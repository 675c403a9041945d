package main

import (
	"context"
	"flag"
	"log"
	"os"
	"sort"

	"github.com/huddlechat/huddle-backend/internal/config"
	"github.com/huddlechat/huddle-backend/internal/migration"
	"github.com/huddlechat/huddle-backend/internal/repository"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// CLI flags
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	configPath := flag.String("config", config.ConfigPath(env), "config file path")
	dryRun := flag.Bool("dry-run", false, "list tables that would be created without executing")
	verify := flag.Bool("verify", false, "check referential integrity and reaction summaries")
	rebuild := flag.Bool("rebuild-summaries", false, "recompute reaction_summaries from reactions")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	loaded := config.LoadDotEnv(env)
	if len(loaded) == 0 {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := gormlogger.Warn
	if *verbose {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	switch {
	case *dryRun:
		pending := migration.Pending(db)
		if len(pending) == 0 {
			log.Println("[dry-run] All tables exist; AutoMigrate would only add missing columns and indexes")
			return
		}
		log.Printf("[dry-run] Would create %d table(s): %v", len(pending), pending)

	case *verify:
		runVerify(db)

	case *rebuild:
		n, err := repository.NewReactionRepository(db).RebuildSummaries(context.Background())
		if err != nil {
			log.Fatalf("Rebuild failed: %v", err)
		}
		log.Printf("Rebuilt %d reaction summary row(s)", n)

	default:
		if err := migration.Run(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed")
	}
}

func runVerify(db *gorm.DB) {
	report, err := migration.Verify(db)
	if err != nil {
		log.Fatalf("Verify failed: %v", err)
	}

	tables := make([]string, 0, len(report.Rows))
	for t := range report.Rows {
		tables = append(tables, t)
	}
	sort.Strings(tables)
	for _, t := range tables {
		log.Printf("  %-20s %d rows", t, report.Rows[t])
	}

	log.Printf("  orphan members:        %d", report.OrphanMembers)
	log.Printf("  orphan messages:       %d", report.OrphanMessages)
	log.Printf("  orphan reactions:      %d", report.OrphanReactions)
	log.Printf("  dangling scopes:       %d", report.DanglingScopes)
	log.Printf("  stale summary counts:  %d", report.StaleSummaryCounts)
	log.Printf("  missing summary pairs: %d", report.MissingSummaryPairs)

	if !report.OK() {
		log.Println("Integrity problems found (run with -rebuild-summaries to repair summaries)")
		os.Exit(1)
	}
	log.Println("OK")
}
