package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelTokenIdempotent(t *testing.T) {
	token := NewCancelToken()
	require.NotEmpty(t, token.ID())
	assert.False(t, token.Cancelled())

	assert.True(t, token.Cancel())
	assert.False(t, token.Cancel())
	assert.True(t, token.Cancelled())

	select {
	case <-token.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestCancelTokenRetired(t *testing.T) {
	token := NewCancelToken()
	token.retire()

	assert.False(t, token.Cancel())
	assert.False(t, token.Cancelled())
	select {
	case <-token.Done():
		t.Fatal("retired token reported done")
	default:
	}
}

func TestCancelTokenConcurrentCancel(t *testing.T) {
	token := NewCancelToken()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if token.Cancel() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
			_ = token.Cancelled()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestCancelTokenContext(t *testing.T) {
	token := NewCancelToken()
	ctx, cancel := token.Context(context.Background())
	defer cancel()

	token.Cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with token")
	}
}

func TestCancelTokensAreDistinct(t *testing.T) {
	first, second := NewCancelToken(), NewCancelToken()
	assert.NotEqual(t, first.ID(), second.ID())
	first.Cancel()
	assert.False(t, second.Cancelled())
}
