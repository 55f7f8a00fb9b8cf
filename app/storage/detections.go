// Package storage keeps scored detections in a sqlite database.
package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver loaded here

	"github.com/bbd03/check-swear/lib/checkswear"
)

// NewSqliteDB opens a sqlite database by path, ":memory:" works for tests.
func NewSqliteDB(file string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", file)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db %s: %w", file, err)
	}
	return db, nil
}

// Detections is a storage for texts scored above the profanity threshold.
type Detections struct {
	db *sqlx.DB
}

// DetectionInfo represents one stored detection.
type DetectionInfo struct {
	Text        string              `db:"text" json:"text"`
	Probability float64             `db:"probability" json:"probability"`
	Timestamp   time.Time           `db:"timestamp" json:"timestamp"`
	NoticesJSON string              `db:"notices" json:"-"`
	Notices     []checkswear.Notice `db:"-" json:"notices,omitempty"`
}

// NewDetections creates the detections storage and its table.
func NewDetections(db *sqlx.DB) (*Detections, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS detections (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT,
		probability REAL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		notices TEXT
	)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create detections table: %w", err)
	}
	return &Detections{db: db}, nil
}

// Write adds a new detection entry.
func (d *Detections) Write(entry DetectionInfo) error {
	noticesJSON, err := json.Marshal(entry.Notices)
	if err != nil {
		return fmt.Errorf("failed to marshal notices: %w", err)
	}
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `INSERT INTO detections (text, probability, timestamp, notices) VALUES (?, ?, ?, ?)`
	if _, err := d.db.Exec(query, entry.Text, entry.Probability, ts, string(noticesJSON)); err != nil {
		return fmt.Errorf("failed to insert detection entry: %w", err)
	}

	log.Printf("[INFO] detection entry added, probability: %.2f", entry.Probability)
	return nil
}

// Read returns all detection entries, the latest first.
func (d *Detections) Read() ([]DetectionInfo, error) {
	var entries []DetectionInfo
	err := d.db.Select(&entries, "SELECT text, probability, timestamp, notices FROM detections ORDER BY timestamp DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to get detection entries: %w", err)
	}

	for i, entry := range entries {
		if entry.NoticesJSON == "" || entry.NoticesJSON == "null" {
			continue
		}
		var notices []checkswear.Notice
		if err := json.Unmarshal([]byte(entry.NoticesJSON), &notices); err != nil {
			return nil, fmt.Errorf("failed to unmarshal notices for entry %d: %w", i, err)
		}
		entries[i].Notices = notices
	}
	return entries, nil
}
