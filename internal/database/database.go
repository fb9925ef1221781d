package database

import (
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("🔌 DATABASE CONNECTION ATTEMPT")
	log.Printf("   📍 URL prefix: %s...", dbURL[:min(20, len(dbURL))])
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Printf("❌ Database connection failed: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Printf("❌ Database ping failed: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ DATABASE CONNECTION SUCCESSFUL")
	return db, nil
}

// Migrate creates the schema. Every statement is idempotent so it runs on each boot.
func Migrate(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user' CHECK(role IN ('user', 'admin')),
			points INT NOT NULL DEFAULT 0 CHECK(points >= 0),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_points ON users(points DESC)`,

		`CREATE TABLE IF NOT EXISTS bins (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL CHECK(latitude BETWEEN -90 AND 90),
			longitude DOUBLE PRECISION NOT NULL CHECK(longitude BETWEEN -180 AND 180),
			capacity INT NOT NULL CHECK(capacity > 0),
			fill_level INT NOT NULL DEFAULT 0 CHECK(fill_level >= 0),
			status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'full', 'maintenance')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bins_status ON bins(status)`,

		// Ledger: bins with history cannot be deleted, users take their history with them
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			bin_id TEXT NOT NULL REFERENCES bins(id) ON DELETE RESTRICT,
			waste_type TEXT NOT NULL,
			confidence NUMERIC(5, 4),
			points_awarded INT NOT NULL CHECK(points_awarded >= 0),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_bin ON transactions(bin_id)`,

		`CREATE OR REPLACE FUNCTION forbid_transaction_update() RETURNS trigger AS $$
		BEGIN
			RAISE EXCEPTION 'transactions are append-only';
		END;
		$$ LANGUAGE plpgsql`,

		`DROP TRIGGER IF EXISTS transactions_append_only ON transactions`,
		`CREATE TRIGGER transactions_append_only
			BEFORE UPDATE ON transactions
			FOR EACH ROW EXECUTE FUNCTION forbid_transaction_update()`,

		`CREATE TABLE IF NOT EXISTS pickup_requests (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			image_url TEXT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			address_text TEXT,
			e_waste_type TEXT,
			preferred_at BIGINT NOT NULL,
			contact_number TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'accepted', 'rejected')),
			points_awarded INT CHECK(points_awarded >= 0),
			rejection_reason TEXT,
			admin_id TEXT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_pickup_requests_user ON pickup_requests(user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_pickup_requests_status ON pickup_requests(status)`,

		`CREATE TABLE IF NOT EXISTS user_fcm_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android', 'web')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_user_fcm_tokens_user ON user_fcm_tokens(user_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}
