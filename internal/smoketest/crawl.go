package smoketest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/okian/ctfboard/internal/domain/types"
	"github.com/okian/ctfboard/pkg/logger"
)

// crawl fetches every page of view concurrently and returns the rows in
// page order together with the first page's envelope.
func crawl[T any](ctx context.Context, client *HTTPClient, cfg *Config, view types.View) ([]T, Page, int, error) {
	first, err := client.Page(ctx, view, 1, cfg.PageSize)
	if err != nil {
		return nil, Page{}, 0, err
	}
	if first.PageCount < 1 {
		return nil, first, 1, fmt.Errorf("%s: page_count %d < 1", view, first.PageCount)
	}

	pages := make([]Page, first.PageCount)
	pages[0] = first

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	jobs := make(chan int, cfg.Workers*2)
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				p, err := client.Page(ctx, view, idx+1, cfg.PageSize)
				mu.Lock()
				if err != nil && firstErr == nil {
					firstErr = err
				}
				pages[idx] = p
				mu.Unlock()
				if cfg.Verbose && err == nil {
					logger.Get().Debug(ctx, "page fetched",
						logger.String("view", string(view)),
						logger.Int("page", idx+1),
						logger.Int("rows", len(p.Rows)))
				}
			}
		}()
	}
	for idx := 1; idx < first.PageCount; idx++ {
		select {
		case jobs <- idx:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, first, len(pages), firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, first, len(pages), err
	}

	rows := make([]T, 0, first.TotalRows)
	for idx, p := range pages {
		if p.PageIndex != idx {
			return nil, first, len(pages), fmt.Errorf("%s: page %d reported index %d", view, idx+1, p.PageIndex)
		}
		for _, raw := range p.Rows {
			var row T
			if err := json.Unmarshal(raw, &row); err != nil {
				return nil, first, len(pages), fmt.Errorf("%s: decode row: %w", view, err)
			}
			rows = append(rows, row)
		}
	}
	return rows, first, len(pages), nil
}
