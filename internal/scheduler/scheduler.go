// Package scheduler запускает фоновые задачи по расписанию.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobFunc одна итерация задачи; ошибка логируется, задача повторится на следующем тике
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	interval time.Duration
	fn       JobFunc
}

type Runner struct {
	mu   sync.Mutex
	jobs []job
	wg   sync.WaitGroup
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register добавляет задачу. Вызывать до Start.
func (r *Runner) Register(name string, interval time.Duration, fn JobFunc) error {
	if interval <= 0 {
		return fmt.Errorf("job %q: interval must be positive", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job{name: name, interval: interval, fn: fn})
	return nil
}

// Start запускает по горутине на задачу; они работают до отмены ctx
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	jobs := append([]job(nil), r.jobs...)
	r.mu.Unlock()

	for _, j := range jobs {
		r.wg.Add(1)
		go r.loop(ctx, j)
	}
	zap.L().Info("scheduler started", zap.Int("jobs", len(jobs)))
}

func (r *Runner) loop(ctx context.Context, j job) {
	defer r.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.run(ctx, j)
		}
	}
}

func (r *Runner) run(ctx context.Context, j job) {
	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("job panicked", zap.String("job", j.name), zap.Any("panic", p))
		}
	}()

	started := time.Now()
	if err := j.fn(ctx); err != nil {
		zap.L().Error("job failed", zap.String("job", j.name), zap.Error(err))
		return
	}
	zap.L().Debug("job done", zap.String("job", j.name), zap.Duration("duration", time.Since(started)))
}

// Stop ждёт завершения задач после отмены контекста Start
func (r *Runner) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
