package services

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// workPool runs a task set that may grow while it runs. Submitting never
// blocks; a task only waits for a running slot before it starts and holds
// it until it returns, and no task waits on another, so nested submission
// cannot deadlock. Wait returns once every task, including ones submitted
// after Wait began, has finished. The first task error cancels the pool.
type workPool struct {
	group  *errgroup.Group
	ctx    context.Context
	slots  *semaphore.Weighted
	logger *zap.Logger
}

func defaultWorkers(workers int) int {
	if workers > 0 {
		return workers
	}
	return max(2, runtime.NumCPU())
}

func newWorkPool(ctx context.Context, workers int, logger *zap.Logger) *workPool {
	group, groupCtx := errgroup.WithContext(ctx)
	return &workPool{
		group:  group,
		ctx:    groupCtx,
		slots:  semaphore.NewWeighted(int64(defaultWorkers(workers))),
		logger: logger,
	}
}

func (pool *workPool) Context() context.Context {
	return pool.ctx
}

// Go schedules task. Tasks that never get a slot because the pool was
// cancelled are dropped without running. Every submitted task owns a parked
// goroutine until it gets a slot, so a directory with n entries parks up to
// n goroutines at a few KB of stack each.
func (pool *workPool) Go(task func(ctx context.Context) error) {
	pool.group.Go(func() error {
		if err := pool.slots.Acquire(pool.ctx, 1); err != nil {
			return nil
		}
		defer pool.slots.Release(1)
		if pool.ctx.Err() != nil {
			return nil
		}
		return pool.run(task)
	})
}

func (pool *workPool) run(task func(ctx context.Context) error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			pool.logger.Error("worker task panicked",
				zap.Any("panic", recovered),
				zap.ByteString("stack", debug.Stack()),
			)
			err = fmt.Errorf("worker task panic: %v", recovered)
		}
	}()
	return task(pool.ctx)
}

func (pool *workPool) Wait() error {
	return pool.group.Wait()
}
