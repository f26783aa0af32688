package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema holds the DDL for every table the service uses.  Statements
// are idempotent so Migrate can run on every start.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS experiences (
		id              CHAR(36)     NOT NULL PRIMARY KEY,
		title           VARCHAR(255) NOT NULL,
		location        VARCHAR(255) NOT NULL,
		description     TEXT         NOT NULL,
		price           INT          NOT NULL,
		image           VARCHAR(1024) NOT NULL,
		available_dates JSON         NOT NULL,
		available_times JSON         NOT NULL,
		created_at      DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at      DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id            CHAR(36)     NOT NULL PRIMARY KEY,
		reference_id  CHAR(8)      NOT NULL,
		experience_id CHAR(36)     NOT NULL,
		full_name     VARCHAR(255) NOT NULL,
		email         VARCHAR(255) NOT NULL,
		booking_date  VARCHAR(32)  NOT NULL,
		booking_time  VARCHAR(32)  NOT NULL,
		quantity      INT          NOT NULL,
		subtotal      INT          NOT NULL,
		taxes         INT          NOT NULL,
		total         INT          NOT NULL,
		discount      INT          NOT NULL DEFAULT 0,
		promo_code    VARCHAR(64)  NULL,
		created_at    DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_bookings_reference (reference_id),
		KEY idx_bookings_slot (experience_id, booking_date, booking_time),
		CONSTRAINT fk_bookings_experience FOREIGN KEY (experience_id) REFERENCES experiences (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS booking_locks (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		experience_id CHAR(36)     NOT NULL,
		booking_date  VARCHAR(32)  NOT NULL,
		booking_time  VARCHAR(32)  NOT NULL,
		locked_by     CHAR(36)     NOT NULL,
		locked_at     DATETIME(3)  NOT NULL,
		expires_at    DATETIME(3)  NOT NULL,
		UNIQUE KEY uq_booking_locks_slot (experience_id, booking_date, booking_time),
		KEY idx_booking_locks_owner (locked_by),
		KEY idx_booking_locks_expires (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS promo_codes (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		code       VARCHAR(64)  NOT NULL,
		discount   INT          NOT NULL,
		is_active  BOOLEAN      NOT NULL DEFAULT TRUE,
		expires_at DATETIME(3)  NULL,
		created_at DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_promo_codes_code (code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
