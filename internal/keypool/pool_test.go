package keypool

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_CurrentEmpty(t *testing.T) {
	p := New(nil)
	_, ok := p.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, p.Size())
	assert.False(t, p.Rotate())
}

func TestPool_CurrentReturnsFirstKey(t *testing.T) {
	p := New([]string{"key-a", "key-b"})
	key, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "key-a", key)
}

func TestPool_RotateAdvances(t *testing.T) {
	p := New([]string{"key-a", "key-b", "key-c"})

	require.True(t, p.Rotate())
	key, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "key-b", key)
	assert.Equal(t, 2, p.Remaining())
}

func TestPool_RotateDepletesAfterExactlyN(t *testing.T) {
	for _, n := range []int{1, 2, 5, 10} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			keys := make([]string, n)
			for i := range keys {
				keys[i] = fmt.Sprintf("key-%d", i)
			}
			p := New(keys)

			// The first n-1 rotations still find a usable key.
			for i := 0; i < n-1; i++ {
				require.True(t, p.Rotate(), "rotation %d", i)
				_, ok := p.Current()
				require.True(t, ok)
			}

			// The nth rotation exhausts the pool, never earlier.
			require.False(t, p.Rotate())
			_, ok := p.Current()
			assert.False(t, ok)
			assert.Equal(t, 0, p.Remaining())
		})
	}
}

func TestPool_RotateWrapsPastExhausted(t *testing.T) {
	p := New([]string{"key-a", "key-b", "key-c"})

	// Exhaust a, then b; current is c.
	require.True(t, p.Rotate())
	require.True(t, p.Rotate())
	key, ok := p.Current()
	require.True(t, ok)
	require.Equal(t, "key-c", key)

	// Rotating from c must wrap and find nothing usable, not land on
	// the already-exhausted a or b.
	assert.False(t, p.Rotate())
	_, ok = p.Current()
	assert.False(t, ok)
}

func TestPool_RotateSkipsExhaustedNeighbor(t *testing.T) {
	p := New([]string{"key-a", "key-b", "key-c"})

	// Mark b exhausted out of band by walking the pool there and back.
	p.mu.Lock()
	p.exhausted[1] = struct{}{}
	p.mu.Unlock()

	// Rotating from a must land on c, skipping b.
	require.True(t, p.Rotate())
	key, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "key-c", key)
}

func TestPool_CurrentClampsOutOfRangeIndex(t *testing.T) {
	p := New([]string{"key-a", "key-b"})
	p.mu.Lock()
	p.current = 99
	p.mu.Unlock()

	key, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "key-a", key)
}

func TestLoad_SkipsPlaceholderAndEmpty(t *testing.T) {
	p := Load(StaticSource{Label: "test", Vals: []string{
		"", Placeholder, "  ", "real-key", "another-key",
	}})

	assert.Equal(t, 2, p.Size())
	key, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "real-key", key)
}

func TestLoad_CapsAtMaxSlots(t *testing.T) {
	vals := make([]string, MaxSlots+5)
	for i := range vals {
		vals[i] = fmt.Sprintf("key-%d", i)
	}
	p := Load(StaticSource{Label: "test", Vals: vals})
	assert.Equal(t, MaxSlots, p.Size())
}

func TestLoad_SourcePriorityOrder(t *testing.T) {
	p := Load(
		StaticSource{Label: "primary", Vals: []string{"first"}},
		StaticSource{Label: "fallback", Vals: []string{"second"}},
	)

	require.Equal(t, 2, p.Size())
	key, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "first", key)

	snap := p.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "primary", snap[0].Source)
	assert.Equal(t, "fallback", snap[1].Source)
}

type failingSource struct{}

func (failingSource) Name() string            { return "broken" }
func (failingSource) Keys() ([]string, error) { return nil, assert.AnError }

func TestLoad_SwallowsSourceErrors(t *testing.T) {
	p := Load(
		failingSource{},
		StaticSource{Label: "env", Vals: []string{"good-key"}},
	)

	require.Equal(t, 1, p.Size())
	key, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "good-key", key)
}

func TestPool_Snapshot(t *testing.T) {
	p := New([]string{"0123456789abcdef", "short"})
	require.True(t, p.Rotate())

	snap := p.Snapshot()
	require.Len(t, snap, 2)

	assert.Equal(t, 1, snap[0].Slot)
	assert.True(t, snap[0].Exhausted)
	assert.False(t, snap[0].Active)
	assert.Equal(t, "0123********cdef", snap[0].Key)

	assert.True(t, snap[1].Active)
	assert.False(t, snap[1].Exhausted)
	assert.Equal(t, "*****", snap[1].Key)
}
