package smoketest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/ctfboard/internal/domain/types"
	"github.com/okian/ctfboard/pkg/logger"
)

// Run crawls all three views of a running server and verifies the ranking
// invariants. It returns every violation found, joined.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	applyDefaults(config)
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get()

	log.Info(ctx, "starting ctfboard smoke test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("workers", config.Workers),
		logger.Int("pageSize", config.PageSize),
		logger.Duration("timeout", config.Timeout),
		logger.Duration("eventWindow", config.EventWindow))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if _, err := client.Get(ctx, "/healthz"); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}
	log.Info(ctx, "service is healthy")

	// Step 2: Crawl every view
	teams, teamsPage, teamPages, err := crawl[types.TeamRow](ctx, client, config, types.ViewTeams)
	if err != nil {
		return stats, fmt.Errorf("team crawl failed: %w", err)
	}
	events, eventsPage, eventPages, err := crawl[types.EventRow](ctx, client, config, types.ViewEvents)
	if err != nil {
		return stats, fmt.Errorf("event crawl failed: %w", err)
	}
	unis, unisPage, uniPages, err := crawl[types.UniversityRow](ctx, client, config, types.ViewUniversities)
	if err != nil {
		return stats, fmt.Errorf("university crawl failed: %w", err)
	}
	stats.PagesFetched = teamPages + eventPages + uniPages
	stats.Teams, stats.Events, stats.Universities = len(teams), len(events), len(unis)

	// Step 3: Verify
	checks := []error{
		verifyPagination(teamsPage, teamPages, len(teams)),
		verifyPagination(eventsPage, eventPages, len(events)),
		verifyPagination(unisPage, uniPages, len(unis)),
		verifyTeams(teams),
		verifyEvents(events, time.Now(), config.EventWindow),
		verifyUniversities(unis, teams),
	}
	joined := errors.Join(checks...)
	stats.Violations = countViolations(joined)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if joined != nil {
		return stats, joined
	}
	log.Info(ctx, "smoke test completed successfully")
	return stats, nil
}

func applyDefaults(c *Config) {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.EventWindow <= 0 {
		c.EventWindow = DefaultEventWindow
	}
}

// countViolations counts the leaves of a tree of joined errors.
func countViolations(err error) int {
	if err == nil {
		return 0
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		n := 0
		for _, e := range j.Unwrap() {
			n += countViolations(e)
		}
		return n
	}
	return 1
}

// displayFinalStats logs the final test statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	logger.Get().Info(ctx, "final statistics",
		logger.Int("pagesFetched", stats.PagesFetched),
		logger.Int("teams", stats.Teams),
		logger.Int("events", stats.Events),
		logger.Int("universities", stats.Universities),
		logger.Int("violations", stats.Violations),
		logger.Duration("duration", stats.Duration))
}
