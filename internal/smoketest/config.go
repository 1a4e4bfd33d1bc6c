package smoketest

import (
	"encoding/json"
	"time"

	"github.com/okian/ctfboard/internal/domain/types"
)

// Config holds configuration for the smoke test.
type Config struct {
	BaseURL     string        // Base URL of the service
	Workers     int           // Concurrent page fetchers per view
	PageSize    int           // Rows requested per page
	Timeout     time.Duration // HTTP request timeout
	EventWindow time.Duration // Expected trailing window of the CTF rankings
	Verbose     bool          // Log every fetched page
}

// Page mirrors the JSON page envelope of the rankings API.
type Page struct {
	View         types.View        `json:"view"`
	Rows         []json.RawMessage `json:"rows"`
	PageIndex    int               `json:"page_index"`
	PageSize     int               `json:"page_size"`
	PageCount    int               `json:"page_count"`
	TotalRows    int               `json:"total_rows"`
	FilteredRows int               `json:"filtered_rows"`
	Sort         string            `json:"sort"`
	Query        string            `json:"query"`
}

// Stats holds test statistics.
type Stats struct {
	PagesFetched int
	Teams        int
	Events       int
	Universities int
	Violations   int
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
}
