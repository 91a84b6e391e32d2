package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"optionsengine/models"
)

// DB represents a database connection holding signal history.
type DB struct {
	*sql.DB
}

// New creates a new database connection from a Postgres URL.
func New(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signal_history (
			id BIGSERIAL PRIMARY KEY,
			instrument TEXT NOT NULL,
			run_at TIMESTAMP NOT NULL,
			side TEXT NOT NULL,
			entry_level TEXT,
			exit_level TEXT,
			price TEXT,
			pcr DOUBLE PRECISION,
			vix DOUBLE PRECISION,
			sentiment INT,
			confidence INT,
			target DOUBLE PRECISION,
			stop_loss DOUBLE PRECISION,
			error TEXT
		)
	`)

	return err
}

// InsertSignal stores one instrument's record for this run.
func (db *DB) InsertSignal(instrument string, record models.SignalRecord) error {
	_, err := db.Exec(`
		INSERT INTO signal_history (
			instrument, run_at, side, entry_level, exit_level, price,
			pcr, vix, sentiment, confidence, target, stop_loss, error
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		instrument, time.Now(), record.Side, record.Entry, record.Exit, record.Price,
		record.PCR, record.VIX, record.Sentiment, record.Confidence,
		record.Target, record.StopLoss, record.Error)

	return err
}

// RecentSignals returns the latest stored records for an instrument,
// newest first.
func (db *DB) RecentSignals(instrument string, limit int) ([]models.SignalRecord, error) {
	rows, err := db.Query(`
		SELECT side, entry_level, exit_level, price, pcr, vix,
			sentiment, confidence, target, stop_loss, COALESCE(error, '')
		FROM signal_history
		WHERE instrument = $1
		ORDER BY run_at DESC
		LIMIT $2
	`, instrument, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SignalRecord
	for rows.Next() {
		var r models.SignalRecord
		if err := rows.Scan(
			&r.Side, &r.Entry, &r.Exit, &r.Price, &r.PCR, &r.VIX,
			&r.Sentiment, &r.Confidence, &r.Target, &r.StopLoss, &r.Error,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
