// Package main loads the communications store from the embedded schema and
// seed, then runs the fixed analytical queries and prints their results.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/harborlane/guestcomms/internal/comms/queries"
	"github.com/harborlane/guestcomms/internal/comms/seed"
	"github.com/harborlane/guestcomms/internal/comms/storage/sqlite"
	"github.com/harborlane/guestcomms/internal/comms/unified"
	"github.com/harborlane/guestcomms/internal/platform/config"
)

type envConfig struct {
	DBPath     string `env:"GUESTCOMMS_DB_PATH" envDefault:"guestcomms.db"`
	HostDomain string `env:"GUESTCOMMS_HOST_DOMAIN" envDefault:"driftwoodstays.example"`
}

const contentWidth = 72

func main() {
	var cfg envConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("parse config: %v", err)
	}
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "database path")
	flag.StringVar(&cfg.HostDomain, "host-domain", cfg.HostDomain, "email domain of the host side")
	flag.Parse()

	log.SetPrefix("[QUERIES] ")
	ctx := context.Background()

	// Rebuild from the seed every run so results are reproducible.
	if err := removeStaleDatabase(cfg.DBPath); err != nil {
		config.Exitf("remove stale database: %v", err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		config.Exitf("open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}()

	if err := seed.Load(ctx, store); err != nil {
		config.Exitf("load seed: %v", err)
	}
	log.Printf("store loaded at %s", cfg.DBPath)

	counts, err := store.RowCounts(ctx)
	if err != nil {
		config.Exitf("row counts: %v", err)
	}
	for _, count := range counts {
		log.Printf("%-26s %3d rows", count.Table, count.Rows)
	}

	projector, err := unified.NewProjector(store, cfg.HostDomain)
	if err != nil {
		config.Exitf("build projector: %v", err)
	}
	runner, err := queries.NewRunner(queries.Stores{
		Entities:  store,
		Messaging: store,
		Calls:     store,
		Email:     store,
		Chat:      store,
	}, projector)
	if err != nil {
		config.Exitf("build runner: %v", err)
	}

	if err := runAll(ctx, runner); err != nil {
		config.Exitf("run queries: %v", err)
	}
}

// removeStaleDatabase deletes a previous run's database file together with
// the WAL sidecar files an interrupted run can leave behind; a sidecar
// outliving the main file would corrupt the freshly seeded store.
func removeStaleDatabase(path string) error {
	for _, stale := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func runAll(ctx context.Context, runner *queries.Runner) error {
	heading("1. All communication for the reservation checking in 2026-03-05")
	records, err := runner.ForCheckIn(ctx, "2026-03-05")
	if err != nil {
		return fmt.Errorf("query 1: %w", err)
	}
	printRecords(records)

	heading("2. Maintenance chatter for Cottage 3 in 2026-02")
	records, err = runner.PropertyChatMaintenance(ctx, "Cottage 3", "2026-02")
	if err != nil {
		return fmt.Errorf("query 2: %w", err)
	}
	printRecords(records)

	heading("3. Most recent call transcript for Marcus Johnson")
	transcript, err := runner.LatestCallTranscript(ctx, "Marcus", "Johnson")
	if err != nil {
		return fmt.Errorf("query 3: %w", err)
	}
	printTranscript(transcript)

	heading("4. Emails about Beach House 1 reservations")
	emails, err := runner.EmailsForProperty(ctx, "Beach House 1")
	if err != nil {
		return fmt.Errorf("query 4: %w", err)
	}
	for _, email := range emails {
		fmt.Printf("%s  %-36s  %s\n",
			email.SentAt.Format("2006-01-02 15:04"),
			email.FromAddress,
			truncate(email.Subject, contentWidth))
	}
	fmt.Printf("  %d rows\n", len(emails))

	heading("5. Full communication timeline for Emily Rodriguez")
	records, err = runner.GuestTimeline(ctx, "Emily", "Rodriguez")
	if err != nil {
		return fmt.Errorf("query 5: %w", err)
	}
	printRecords(records)

	heading("6. Maintenance activity by property in 2026-02")
	summaries, err := runner.MaintenanceByProperty(ctx, "2026-02")
	if err != nil {
		return fmt.Errorf("query 6: %w", err)
	}
	for _, summary := range summaries {
		fmt.Printf("%-16s  %2d mentions  first %s  last %s\n",
			summary.PropertyName,
			summary.Mentions,
			summary.FirstAt.Format("2006-01-02 15:04"),
			summary.LastAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("  %d rows\n", len(summaries))

	return nil
}

func heading(title string) {
	fmt.Println()
	fmt.Println(title)
	fmt.Println("----------------------------------------------------------------------")
}

func printRecords(records []unified.Record) {
	for _, record := range records {
		fmt.Printf("%s  %-9s  %-8s  %s\n",
			record.SentAt.Format("2006-01-02 15:04"),
			record.Source,
			record.Direction,
			truncate(record.Content, contentWidth))
	}
	fmt.Printf("  %d rows\n", len(records))
}

func printTranscript(transcript *queries.Transcript) {
	if transcript == nil {
		fmt.Println("  (no call on record)")
		return
	}
	fmt.Printf("%s call with %s, started %s, %ds\n",
		transcript.Call.Direction,
		transcript.Guest.FullName(),
		transcript.Call.StartedAt.Format("2006-01-02 15:04"),
		transcript.Call.DurationSeconds)
	for _, segment := range transcript.Segments {
		fmt.Printf("%4ss  %-5s  %s\n",
			strconv.FormatInt(segment.OffsetSeconds, 10),
			segment.Speaker,
			truncate(segment.Text, contentWidth))
	}
}

// truncate shortens display text without altering underlying content.
func truncate(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}
