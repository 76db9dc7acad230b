package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratorIsMonotonic(t *testing.T) {
	gen := NewGenerator()

	prev := gen.Next()
	for i := 0; i < 100; i++ {
		next := gen.Next()
		require.Equal(t, 1, next.Compare(prev))
		prev = next
	}
	assert.Len(t, gen.String(), 26)
}

func TestPrefixedIDs(t *testing.T) {
	tests := []struct {
		prefix string
		newID  func() string
	}{
		{RunPrefix, func() string { return NewRunID().String() }},
		{SnippetPrefix, func() string { return NewSnippetID().String() }},
		{RequestPrefix, func() string { return NewRequestID().String() }},
		{ConnPrefix, func() string { return NewConnID().String() }},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got := tt.newID()
			assert.True(t, strings.HasPrefix(got, tt.prefix+"_"))
			assert.True(t, IsPrefixed(got, tt.prefix))
		})
	}

	assert.False(t, IsPrefixed(NewSnippetID().String(), RunPrefix))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(Default().String()))

	for _, s := range []string{"", "invalid", "1234567890", "zzzzzzzzzzzzzzzzzzzzzzzzzz"} {
		assert.False(t, IsValid(s), s)
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)

	ts, err := Timestamp(NewRunID().String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))
	assert.True(t, ts.Before(time.Now().Add(time.Second)))

	_, err = Timestamp("run_invalid")
	assert.Error(t, err)
}

func TestConcurrentGeneration(t *testing.T) {
	const workers, perWorker = 8, 200

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s := NewRunID().String()
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
