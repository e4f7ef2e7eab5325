package worklist

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/calllist-cli/internal/cache"
	"github.com/sells-group/calllist-cli/internal/config"
	"github.com/sells-group/calllist-cli/internal/resolver"
)

// PhoneResolver is the engine contract the processor consumes.
type PhoneResolver interface {
	ResolvePhone(ctx context.Context, q resolver.Query) resolver.PhoneResult
	SearchText(q resolver.Query) string
}

// Stats summarizes a processing run.
type Stats struct {
	Rows      int  // data rows with a subject
	Searched  int  // rows that went through the resolver
	Skipped   int  // rows whose output cell was already filled
	Found     int  // rows that got a phone number
	CacheHits int  // rows answered from the local cache
	Exhausted bool // run stopped because every key hit its quota
}

// Processor fills a workbook's output column row by row.
type Processor struct {
	resolver    PhoneResolver
	markers     config.OutputConfig
	cache       *cache.Cache
	limiter     *rate.Limiter
	concurrency int
}

// NewProcessor creates a processor over the given resolver.
func NewProcessor(res PhoneResolver, markers config.OutputConfig) *Processor {
	return &Processor{
		resolver:    res,
		markers:     markers,
		concurrency: 1,
	}
}

// WithCache enables the local lookup cache.
func (p *Processor) WithCache(c *cache.Cache) *Processor {
	p.cache = c
	return p
}

// WithRateLimit paces provider requests at n per second.
func (p *Processor) WithRateLimit(n float64) *Processor {
	if n > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(n), 1)
	}
	return p
}

// WithConcurrency processes up to n rows at once. The key pool and the
// workbook are shared, so writes stay mutex-guarded.
func (p *Processor) WithConcurrency(n int) *Processor {
	if n > 0 {
		p.concurrency = n
	}
	return p
}

// Run resolves every row whose output cell is empty and writes results
// back into the workbook. Rows with a pre-filled output cell are never
// sent to the resolver. Once the key pool is depleted the remaining
// rows are left untouched: retrying a doomed pool only wastes time.
// limit > 0 caps how many rows are searched.
func (p *Processor) Run(ctx context.Context, wb *Workbook, limit int) (Stats, error) {
	log := zap.L().With(zap.String("run_id", uuid.New().String()))

	rows := wb.Rows()
	var stats Stats
	stats.Rows = len(rows)

	var todo []Row
	for _, row := range rows {
		if row.Phone != "" {
			stats.Skipped++
			log.Debug("skipping row with existing phone",
				zap.Int("row", row.Index+1),
				zap.String("subject", row.Subject),
			)
			continue
		}
		if limit > 0 && len(todo) >= limit {
			break
		}
		todo = append(todo, row)
	}

	log.Info("processing call list",
		zap.Int("rows", stats.Rows),
		zap.Int("to_search", len(todo)),
		zap.Int("skipped", stats.Skipped),
	)

	var (
		mu        sync.Mutex
		exhausted atomic.Bool
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, row := range todo {
		g.Go(func() error {
			if exhausted.Load() {
				return nil
			}

			q := resolver.Query{Subject: row.Subject, Region: row.Region}
			key := p.resolver.SearchText(q)

			if phone, hit, err := p.cache.Get(gCtx, key); err != nil {
				log.Warn("cache lookup failed", zap.Error(err))
			} else if hit {
				mu.Lock()
				stats.Searched++
				stats.CacheHits++
				stats.Found++
				err := wb.SetPhone(row.Index, phone)
				mu.Unlock()
				return err
			}

			if p.limiter != nil {
				if err := p.limiter.Wait(gCtx); err != nil {
					return err
				}
			}

			log.Info("searching phone number",
				zap.Int("row", i+1),
				zap.Int("of", len(todo)),
				zap.String("subject", row.Subject),
				zap.String("region", row.Region),
			)

			result := p.resolver.ResolvePhone(gCtx, q)

			mu.Lock()
			defer mu.Unlock()
			stats.Searched++

			switch result.Status {
			case resolver.StatusFound:
				stats.Found++
				if err := wb.SetPhone(row.Index, result.Phone); err != nil {
					return err
				}
				if err := p.cache.Put(gCtx, key, result.Phone); err != nil {
					log.Warn("cache write failed", zap.Error(err))
				}
			case resolver.StatusNotFound:
				if err := wb.SetPhone(row.Index, p.markers.NotFoundMarker); err != nil {
					return err
				}
			case resolver.StatusNoCredentials:
				exhausted.Store(true)
				stats.Exhausted = true
				return wb.SetPhone(row.Index, p.markers.MissingKeyMarker)
			case resolver.StatusExhausted:
				exhausted.Store(true)
				stats.Exhausted = true
				return wb.SetPhone(row.Index, p.markers.ExhaustedMarker)
			case resolver.StatusProviderError:
				if err := wb.SetPhone(row.Index, p.markers.ErrorPrefix+result.Message); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}

	if stats.Exhausted {
		log.Warn("stopped early: all api keys exhausted",
			zap.Int("searched", stats.Searched),
			zap.Int("remaining", len(todo)-stats.Searched),
		)
	}
	log.Info("processing complete",
		zap.Int("searched", stats.Searched),
		zap.Int("found", stats.Found),
		zap.Int("skipped", stats.Skipped),
		zap.Int("cache_hits", stats.CacheHits),
	)

	return stats, nil
}
