// Package seed generates events, submits them concurrently through the HTTP
// API and checks that the served standings match a local recomputation.
package seed

import (
	"time"

	model "github.com/okian/housecup/internal/domain/model"
	"github.com/okian/housecup/internal/domain/types"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumEvents  int           // Number of events to generate
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	RetryRate  float64       // Share of events submitted a second time with the same key
	SettleWait time.Duration // How long to wait for the served view to include every write
	OutputFile string        // Output file for generated events, "" to skip
	Verbose    bool          // Log every request outcome
}

// Item is one generated event and the idempotency key it is submitted with.
type Item struct {
	Key   string           `json:"key"`
	Draft model.EventDraft `json:"draft"`
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Submitted  int
	Created    int
	Duplicates int
	Failed     int
	Served     int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

type createResponse struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

// EventsPage is the GET /events body.
type EventsPage struct {
	Events  []model.Event `json:"events"`
	Version uint64        `json:"version"`
	Stale   bool          `json:"stale"`
}

// StandingsPage is the GET /standings body.
type StandingsPage struct {
	Standings []types.Standing `json:"standings"`
	Version   uint64           `json:"version"`
	Stale     bool             `json:"stale"`
}
