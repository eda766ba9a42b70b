package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// CancelToken belongs to exactly one scan or delete batch. Once set it stays
// set; start a new operation with a new token. A token retired by a finished
// operation can no longer be set.
type CancelToken struct {
	id        string
	cancelled atomic.Bool
	once      sync.Once
	done      chan struct{}
}

func NewCancelToken() *CancelToken {
	return &CancelToken{
		id:   uuid.NewString(),
		done: make(chan struct{}),
	}
}

func (token *CancelToken) ID() string {
	return token.id
}

// Cancel reports whether this call was the one that set the token.
func (token *CancelToken) Cancel() bool {
	first := false
	token.once.Do(func() {
		token.cancelled.Store(true)
		close(token.done)
		first = true
	})
	return first
}

// retire consumes the token without setting it, so cancelling a finished
// operation is a no-op.
func (token *CancelToken) retire() {
	token.once.Do(func() {})
}

func (token *CancelToken) Cancelled() bool {
	return token.cancelled.Load()
}

func (token *CancelToken) Done() <-chan struct{} {
	return token.done
}

// Context derives a context that is cancelled with the token.
func (token *CancelToken) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-token.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
