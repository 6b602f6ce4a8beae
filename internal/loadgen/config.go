// Package loadgen drives a running radar service over HTTP: it registers
// synthetic entities, posts manual events for them, triggers batch
// aggregation and checks that every ranking comes back ordered.
package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL         string        // Base URL of the service
	Entities        int           // Number of entities to register
	EventsPerEntity int           // Manual events posted per entity
	Workspace       string        // Workspace the entities belong to
	Scenes          []string      // Scenes entities are spread across
	TopN            int           // Entries fetched per ranking
	Workers         int           // Concurrent HTTP workers
	BatchSize       int           // Entity ids per batch aggregation call
	Timeout         time.Duration // HTTP request timeout
	Prefix          string        // Entity id prefix
}

// Stats holds run statistics.
type Stats struct {
	EntitiesRegistered int           `json:"entities_registered"`
	EntitiesFailed     int           `json:"entities_failed"`
	EventsSubmitted    int           `json:"events_submitted"`
	EventsAccepted     int           `json:"events_accepted"`
	EventsRejected     int           `json:"events_rejected"`
	EventsFailed       int           `json:"events_failed"`
	Aggregated         int           `json:"aggregated"`
	RankingsChecked    int           `json:"rankings_checked"`
	LeaderboardEntries int           `json:"leaderboard_entries"`
	Duration           time.Duration `json:"duration"`
}

// DefaultConfig returns a small run against a local service.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:9080",
		Entities:        100,
		EventsPerEntity: 3,
		Workspace:       "loadgen",
		Scenes:          []string{"berlin-techno", "lagos-afrobeats", "seoul-indie"},
		TopN:            20,
		Workers:         8,
		BatchSize:       100,
		Timeout:         30 * time.Second,
		Prefix:          "load",
	}
}
