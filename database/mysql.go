package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
)

// errDuplicateEntry is MySQL's ER_DUP_ENTRY.
const errDuplicateEntry = 1062

func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	slog.Info("database connected")
	return db, nil
}

// CreateTables bootstraps the schema. The users table belongs to the identity
// service; it is created here only so a fresh database is usable.
func CreateTables(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id          VARCHAR(36) PRIMARY KEY,
			username    VARCHAR(50) NOT NULL,
			nickname    VARCHAR(100) NOT NULL DEFAULT '',
			created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uk_username (username)
		)`,
		`CREATE TABLE IF NOT EXISTS friendships (
			id            VARCHAR(36) PRIMARY KEY,
			user_low      VARCHAR(36) NOT NULL,
			user_high     VARCHAR(36) NOT NULL,
			requester_id  VARCHAR(36) NOT NULL,
			status        ENUM('pending', 'accepted', 'blocked') NOT NULL DEFAULT 'pending',
			created_at    DATETIME(6) NOT NULL,
			updated_at    DATETIME(6) NOT NULL,
			UNIQUE KEY uk_friendship_pair (user_low, user_high),
			INDEX idx_high_status (user_high, status),
			INDEX idx_requester (requester_id, status)
		)`,
		`CREATE TABLE IF NOT EXISTS dialogs (
			id            VARCHAR(36) PRIMARY KEY,
			user_low      VARCHAR(36) NOT NULL,
			user_high     VARCHAR(36) NOT NULL,
			last_seq      BIGINT NOT NULL DEFAULT 0,
			last_sent_at  DATETIME(6) NULL,
			created_at    DATETIME(6) NOT NULL,
			UNIQUE KEY uk_dialog_pair (user_low, user_high)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id          VARCHAR(36) PRIMARY KEY,
			dialog_id   VARCHAR(36) NOT NULL,
			sender_id   VARCHAR(36) NOT NULL,
			text        TEXT NOT NULL,
			sent_at     DATETIME(6) NOT NULL,
			seq         BIGINT NOT NULL,
			UNIQUE KEY uk_dialog_seq (dialog_id, seq)
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("database: create tables: %w", err)
		}
	}

	slog.Info("database tables ready")
	return nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry
}
