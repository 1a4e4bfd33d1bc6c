package smoketest

import "time"

// Defaults used when Config leaves a field zero.
const (
	DefaultWorkers     = 4
	DefaultPageSize    = 50
	DefaultTimeout     = 10 * time.Second
	DefaultEventWindow = 365 * 24 * time.Hour
)

// clockSkew tolerates a difference between this host's clock and the server's
// when checking the event window.
const clockSkew = 24 * time.Hour

// floatTolerance absorbs rounding in aggregated ratings.
const floatTolerance = 1e-6
