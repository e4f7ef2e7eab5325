// Package keypool manages a pool of SerpAPI keys with rotation on
// quota exhaustion. Exhaustion state lives for the current run only;
// a restart resets every slot.
package keypool

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// MaxSlots caps how many numbered key slots a source is read for.
const MaxSlots = 10

// Placeholder is the sample value shipped in .env templates. Slots
// holding it are treated as absent.
const Placeholder = "your_api_key_here"

// Pool holds an ordered set of API keys and tracks which ones have hit
// their quota during this run. The zero index is the preferred key;
// rotation walks forward cyclically.
type Pool struct {
	mu        sync.Mutex
	keys      []string
	sources   []string // parallel to keys, source name per slot
	current   int
	exhausted map[int]struct{}
}

// New creates a pool over the given keys, in order.
func New(keys []string) *Pool {
	p := &Pool{
		keys:      keys,
		exhausted: make(map[int]struct{}),
	}
	p.sources = make([]string, len(keys))
	return p
}

// Load gathers keys from the sources in priority order, up to MaxSlots
// total. Empty and placeholder slots are skipped. A source that fails
// to read is treated as unavailable, not as an error.
func Load(sources ...Source) *Pool {
	p := &Pool{exhausted: make(map[int]struct{})}
	for _, src := range sources {
		keys, err := src.Keys()
		if err != nil {
			zap.L().Debug("keypool: source unavailable",
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			continue
		}
		for _, k := range keys {
			k = strings.TrimSpace(k)
			if k == "" || k == Placeholder {
				continue
			}
			if len(p.keys) >= MaxSlots {
				return p
			}
			p.keys = append(p.keys, k)
			p.sources = append(p.sources, src.Name())
		}
	}
	return p
}

// Size returns the number of configured keys, exhausted or not.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// Remaining returns how many keys have not been marked exhausted.
func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys) - len(p.exhausted)
}

// Current returns the active key. ok is false when the pool is empty
// or every key is exhausted.
func (p *Pool) Current() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) == 0 || len(p.exhausted) >= len(p.keys) {
		return "", false
	}
	// Safety clamp; current should always be in bounds.
	if p.current < 0 || p.current >= len(p.keys) {
		p.current = 0
	}
	return p.keys[p.current], true
}

// CurrentSlot returns the index of the active key, for logging.
func (p *Pool) CurrentSlot() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Rotate marks the active key exhausted and advances to the next
// usable one, wrapping past the end. Returns false when no usable key
// remains; the pool is then depleted for the rest of the run.
func (p *Pool) Rotate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.keys) == 0 {
		return false
	}

	p.exhausted[p.current] = struct{}{}

	for i := 1; i <= len(p.keys); i++ {
		next := (p.current + i) % len(p.keys)
		if _, done := p.exhausted[next]; !done {
			p.current = next
			return true
		}
	}
	return false
}

// SlotStatus describes one key slot for display.
type SlotStatus struct {
	Slot      int    `json:"slot"`
	Key       string `json:"key"` // masked
	Source    string `json:"source"`
	Active    bool   `json:"active"`
	Exhausted bool   `json:"exhausted"`
}

// Snapshot returns the masked per-slot state of the pool.
func (p *Pool) Snapshot() []SlotStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	depleted := len(p.keys) == 0 || len(p.exhausted) >= len(p.keys)
	out := make([]SlotStatus, len(p.keys))
	for i, k := range p.keys {
		_, done := p.exhausted[i]
		src := ""
		if i < len(p.sources) {
			src = p.sources[i]
		}
		out[i] = SlotStatus{
			Slot:      i + 1,
			Key:       mask(k),
			Source:    src,
			Active:    !depleted && i == p.current,
			Exhausted: done,
		}
	}
	return out
}

func mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
