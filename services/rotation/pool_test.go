package rotation

import (
	"sync"
	"testing"

	"github.com/gramgyan/backend/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPool(t *testing.T) {
	tests := []struct {
		name    string
		primary string
		list    string
		want    []string
	}{
		{"primary only", "k1", "", []string{"k1"}},
		{"list only", "", "k1,k2", []string{"k1", "k2"}},
		{"primary first", "k0", "k1, k2", []string{"k0", "k1", "k2"}},
		{"blank entries dropped", " ", "k1,, ,k2,", []string{"k1", "k2"}},
		{"duplicates kept", "k1", "k1", []string{"k1", "k1"}},
		{"empty", "", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := LoadPool("gemini", tt.primary, tt.list)
			assert.Equal(t, tt.want, p.keys)
			assert.Equal(t, len(tt.want), p.Len())
		})
	}
}

func TestPool_CurrentEmpty(t *testing.T) {
	p := NewPool("sarvam")

	_, err := p.Current()
	require.Error(t, err)
	assert.True(t, services.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "no sarvam credentials configured")
	assert.Equal(t, 0, p.Index())

	p.Rotate()
	assert.Equal(t, 0, p.Index())
}

func TestPool_Rotate(t *testing.T) {
	p := NewPool("sarvam", "a", "b", "c")

	seen := []string{}
	for i := 0; i < 4; i++ {
		k, err := p.Current()
		require.NoError(t, err)
		seen = append(seen, k)
		p.Rotate()
	}

	assert.Equal(t, []string{"a", "b", "c", "a"}, seen)
	assert.Equal(t, 1, p.Index())
}

func TestPool_RotateSingleIsNoop(t *testing.T) {
	p := NewPool("gemini", "only")
	p.Rotate()
	p.Rotate()

	k, err := p.Current()
	require.NoError(t, err)
	assert.Equal(t, "only", k)
	assert.Equal(t, 0, p.Index())
}

func TestPool_Status(t *testing.T) {
	p := NewPool("gemini", "secret-1", "secret-2")
	p.Rotate()

	status := p.Status()
	assert.Equal(t, PoolStatus{Name: "gemini", Size: 2, Index: 1}, status)
}

// Concurrent rotations are not coordinated. Every Rotate call advances the
// cursor, so when several requests fail on the same key at once the cursor
// moves past keys nobody tried. This test pins that behaviour: the index stays
// in range but the final position depends only on how many rotations happened.
func TestPool_ConcurrentRotateRace(t *testing.T) {
	p := NewPool("sarvam", "a", "b", "c")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, _ = p.Current()
			p.Rotate()
		}()
	}
	wg.Wait()

	assert.Equal(t, workers%3, p.Index())
	k, err := p.Current()
	require.NoError(t, err)
	assert.Contains(t, []string{"a", "b", "c"}, k)
}
