package main

import (
	"fmt"
	"log"

	"remat-backend/internal/config"
	"remat-backend/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migration completed successfully!")

	if err := database.SeedBins(db); err != nil {
		log.Fatalf("Seeding bins failed: %v", err)
	}
	if cfg.Auth.Mode == config.AuthModeLocal {
		for _, email := range cfg.Auth.AdminEmails {
			if err := database.SeedAdmin(db, email, cfg.Auth.AdminPassword); err != nil {
				log.Fatalf("Seeding admin %s failed: %v", email, err)
			}
		}
	}

	var result struct {
		TotalBins       int `db:"total_bins"`
		ActiveBins      int `db:"active_bins"`
		FullBins        int `db:"full_bins"`
		MaintenanceBins int `db:"maintenance_bins"`
		Users           int `db:"users"`
		Admins          int `db:"admins"`
		Transactions    int `db:"transactions"`
		OpenPickups     int `db:"open_pickups"`
	}

	query := `
		SELECT
			(SELECT COUNT(*) FROM bins) AS total_bins,
			(SELECT COUNT(*) FROM bins WHERE status = 'active') AS active_bins,
			(SELECT COUNT(*) FROM bins WHERE status = 'full') AS full_bins,
			(SELECT COUNT(*) FROM bins WHERE status = 'maintenance') AS maintenance_bins,
			(SELECT COUNT(*) FROM users) AS users,
			(SELECT COUNT(*) FROM users WHERE role = 'admin') AS admins,
			(SELECT COUNT(*) FROM transactions) AS transactions,
			(SELECT COUNT(*) FROM pickup_requests WHERE status = 'open') AS open_pickups
	`

	if err := db.Get(&result, query); err != nil {
		log.Fatalf("Failed to query summary: %v", err)
	}

	fmt.Println("\n============================================================")
	fmt.Println("MIGRATION SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("Total bins:              %d\n", result.TotalBins)
	fmt.Printf("Active bins:             %d\n", result.ActiveBins)
	fmt.Printf("Full bins:               %d (awaiting collection)\n", result.FullBins)
	fmt.Printf("Maintenance bins:        %d\n", result.MaintenanceBins)
	fmt.Printf("Users:                   %d (%d admins)\n", result.Users, result.Admins)
	fmt.Printf("Ledger transactions:     %d\n", result.Transactions)
	fmt.Printf("Open pickup requests:    %d\n", result.OpenPickups)
	fmt.Println("============================================================")
}
