package id

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedIDsCarryPrefixes(t *testing.T) {
	assert.True(t, IsValid(NewElementID().String(), ElementPrefix))
	assert.True(t, IsValid(NewCallID().String(), CallPrefix))
	assert.True(t, IsValid(NewSessionID().String(), SessionPrefix))

	assert.False(t, IsValid(NewElementID().String(), CallPrefix))
	assert.False(t, IsValid("not-an-id", ElementPrefix))
	assert.False(t, IsValid("el_garbage", ElementPrefix))
}

func TestGenerateUnique(t *testing.T) {
	gen := NewGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := gen.GenerateString()
		require.False(t, seen[s], "duplicate ULID %s", s)
		seen[s] = true
	}
}

func TestGenerateConcurrent(t *testing.T) {
	gen := NewGenerator()
	var wg sync.WaitGroup
	results := make(chan string, 100)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				results <- gen.GenerateString()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for s := range results {
		assert.False(t, seen[s])
		seen[s] = true
	}
	assert.Len(t, seen, 100)
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	elID := NewElementID()
	after := time.Now().Add(time.Second)

	ts, err := Timestamp(elID.String())
	require.NoError(t, err)
	assert.True(t, ts.After(before) && ts.Before(after))

	_, err = Timestamp("noprefix")
	assert.Error(t, err)
}
