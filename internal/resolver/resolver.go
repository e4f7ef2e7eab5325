// Package resolver turns a store name into a phone number via Google
// search results, rotating across API keys when one runs out of quota.
package resolver

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/calllist-cli/internal/keypool"
	"github.com/sells-group/calllist-cli/pkg/serpapi"
)

// Status tags the outcome of a phone lookup.
type Status int

const (
	// StatusFound means a phone number was extracted.
	StatusFound Status = iota
	// StatusNotFound means the search succeeded but yielded no number.
	StatusNotFound
	// StatusExhausted means every configured key hit its quota.
	StatusExhausted
	// StatusNoCredentials means no usable key was configured at all.
	StatusNoCredentials
	// StatusProviderError means a non-quota provider or transport failure.
	StatusProviderError
)

// PhoneResult is the engine's sole output. Phone is set only for
// StatusFound; Message only for StatusProviderError.
type PhoneResult struct {
	Status  Status
	Phone   string
	Message string
}

// Query identifies the store to look up.
type Query struct {
	Subject string // store name, required
	Region  string // prefecture, optional
}

// Config tunes the resolver. Zero values fall back to the defaults the
// production config ships.
type Config struct {
	PhoneTerm     string   // query suffix, default 電話番号
	Language      string   // hl, default ja
	Country       string   // gl, default jp
	ResultCount   int      // num, default 5
	QuotaKeywords []string // substrings that classify an error as quota
}

// DefaultQuotaKeywords classify an error message as quota exhaustion.
// "run out of searches" is SerpAPI's actual monthly-limit phrasing.
var DefaultQuotaKeywords = []string{"quota", "limit", "credits", "429", "run out of searches"}

func (c *Config) applyDefaults() {
	if c.PhoneTerm == "" {
		c.PhoneTerm = "電話番号"
	}
	if c.Language == "" {
		c.Language = "ja"
	}
	if c.Country == "" {
		c.Country = "jp"
	}
	if c.ResultCount <= 0 {
		c.ResultCount = 5
	}
	if len(c.QuotaKeywords) == 0 {
		c.QuotaKeywords = DefaultQuotaKeywords
	}
}

// Resolver resolves queries against a shared key pool.
type Resolver struct {
	search serpapi.Client
	pool   *keypool.Pool
	cfg    Config
}

// New creates a resolver over the given search client and key pool.
func New(search serpapi.Client, pool *keypool.Pool, cfg Config) *Resolver {
	cfg.applyDefaults()
	return &Resolver{search: search, pool: pool, cfg: cfg}
}

// SearchText builds the provider query: subject, optional region, and
// the phone-term suffix.
func (r *Resolver) SearchText(q Query) string {
	parts := []string{strings.TrimSpace(q.Subject)}
	if region := strings.TrimSpace(q.Region); region != "" {
		parts = append(parts, region)
	}
	parts = append(parts, r.cfg.PhoneTerm)
	return strings.Join(parts, " ")
}

// ResolvePhone resolves a single query. Quota-class failures rotate to
// the next key and retry; any other failure returns immediately so a
// malformed query or provider outage does not burn through the pool.
// The attempt count is bounded by pool size, so the loop terminates
// after at most one full cycle through the keys.
func (r *Resolver) ResolvePhone(ctx context.Context, q Query) PhoneResult {
	if r.pool.Size() == 0 {
		return PhoneResult{Status: StatusNoCredentials}
	}

	attempts := r.pool.Size()
	for attempts > 0 {
		key, ok := r.pool.Current()
		if !ok {
			return PhoneResult{Status: StatusExhausted}
		}

		resp, err := r.search.Search(ctx, key, serpapi.Params{
			Query:    r.SearchText(q),
			Num:      r.cfg.ResultCount,
			Language: r.cfg.Language,
			Country:  r.cfg.Country,
		})
		if err != nil {
			if r.isQuotaError(err.Error()) {
				if !r.rotate(q) {
					return PhoneResult{Status: StatusExhausted}
				}
				attempts--
				continue
			}
			return PhoneResult{Status: StatusProviderError, Message: err.Error()}
		}

		if resp.Error != "" {
			if r.isQuotaError(resp.Error) {
				if !r.rotate(q) {
					return PhoneResult{Status: StatusExhausted}
				}
				attempts--
				continue
			}
			return PhoneResult{Status: StatusProviderError, Message: resp.Error}
		}

		if phone, ok := ExtractPhone(resp); ok {
			return PhoneResult{Status: StatusFound, Phone: phone}
		}
		return PhoneResult{Status: StatusNotFound}
	}

	return PhoneResult{Status: StatusExhausted}
}

func (r *Resolver) rotate(q Query) bool {
	if !r.pool.Rotate() {
		zap.L().Warn("resolver: all api keys exhausted",
			zap.String("subject", q.Subject),
		)
		return false
	}
	zap.L().Info("resolver: rotated to next api key",
		zap.Int("slot", r.pool.CurrentSlot()+1),
		zap.Int("remaining", r.pool.Remaining()),
	)
	return true
}

func (r *Resolver) isQuotaError(msg string) bool {
	msg = strings.ToLower(msg)
	for _, kw := range r.cfg.QuotaKeywords {
		if strings.Contains(msg, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
