package database

import (
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"remat-backend/internal/models"
)

// SeedBins inserts a demo set of collection bins into an empty bins table
func SeedBins(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM bins"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Bins already seeded, skipping...")
		return nil
	}

	bins := []map[string]interface{}{
		{"name": "MG Road Metro", "latitude": 12.9755, "longitude": 77.6068, "capacity": 100, "fill_level": 20},
		{"name": "Indiranagar 100ft Road", "latitude": 12.9719, "longitude": 77.6412, "capacity": 100, "fill_level": 45},
		{"name": "Koramangala Forum", "latitude": 12.9346, "longitude": 77.6114, "capacity": 120, "fill_level": 70},
		{"name": "Jayanagar 4th Block", "latitude": 12.9250, "longitude": 77.5838, "capacity": 100, "fill_level": 10},
		{"name": "Malleshwaram 18th Cross", "latitude": 13.0031, "longitude": 77.5643, "capacity": 80, "fill_level": 0},
		{"name": "Whitefield ITPL", "latitude": 12.9863, "longitude": 77.7366, "capacity": 150, "fill_level": 90, "status": "full"},
		{"name": "Electronic City Phase 1", "latitude": 12.8452, "longitude": 77.6602, "capacity": 150, "fill_level": 30},
		{"name": "Hebbal Flyover", "latitude": 13.0358, "longitude": 77.5970, "capacity": 100, "fill_level": 0, "status": "maintenance"},
	}

	log.Printf("🌱 Seeding %d bins...", len(bins))

	for _, bin := range bins {
		bin["id"] = uuid.New().String()
		if _, ok := bin["status"]; !ok {
			bin["status"] = string(models.BinStatusActive)
		}
		query := `
			INSERT INTO bins (id, name, latitude, longitude, capacity, fill_level, status)
			VALUES (:id, :name, :latitude, :longitude, :capacity, :fill_level, :status)
		`
		if _, err := db.NamedExec(query, bin); err != nil {
			return err
		}
	}

	log.Printf("✓ Successfully seeded %d bins", len(bins))
	return nil
}

// SeedAdmin creates a local-login admin account when the email is not taken.
// Only used in local auth mode; Firebase deployments manage accounts themselves.
func SeedAdmin(db *sqlx.DB, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users WHERE email = $1", email); err != nil {
		return err
	}
	if count > 0 {
		log.Printf("✓ Admin %s already exists, skipping...", email)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = db.NamedExec(`
		INSERT INTO users (id, email, password, name, role)
		VALUES (:id, :email, :password, :name, :role)
	`, map[string]interface{}{
		"id":       uuid.New().String(),
		"email":    email,
		"password": string(hash),
		"name":     "Admin",
		"role":     models.RoleAdmin,
	})
	if err != nil {
		return err
	}

	log.Printf("  ✓ Created admin user: %s", email)
	return nil
}
