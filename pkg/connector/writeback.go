package connector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/semilink/semilink/pkg/semilinkgo/methods"
	"github.com/semilink/semilink/pkg/semilinkgo/routing/payload"
	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

type TaskKind string

const (
	TaskExperienceSync TaskKind = "experience_sync"
	TaskProfileUpdate  TaskKind = "profile_update"
	TaskPostInsert     TaskKind = "post_insert"
)

// Task is one pending write to the remote service.
type Task struct {
	ID        string
	Kind      TaskKind
	ProfileID string
	Attempts  int

	Experience []types.Experience
	Profile    *types.Profile
	Post       *payload.PostInsert
}

func (t *Task) coalesces(other *Task) bool {
	return t.Kind != TaskPostInsert && t.Kind == other.Kind && t.ProfileID == other.ProfileID
}

// WriteBackQueue sends local changes to the remote service in the order
// they were made. Failed tasks are retried a bounded number of times and
// then dropped; the local copy stays authoritative either way.
type WriteBackQueue struct {
	remote  RemoteService
	cfg     WriteBackConfig
	metrics *Metrics
	log     zerolog.Logger
	limiter *rate.Limiter

	lock  sync.Mutex
	tasks []*Task
	wake  chan struct{}

	drainLock sync.Mutex
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewWriteBackQueue(remote RemoteService, cfg WriteBackConfig, metrics *Metrics, log zerolog.Logger) *WriteBackQueue {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &WriteBackQueue{
		remote:  remote,
		cfg:     cfg,
		metrics: metrics,
		log:     log.With().Str("component", "writeback").Logger(),
		limiter: rate.NewLimiter(limit, burst),
		wake:    make(chan struct{}, 1),
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue adds a task. A task for the same profile and kind as the last
// queued one replaces that task's payload instead of queueing twice.
func (wq *WriteBackQueue) Enqueue(task Task) {
	if wq == nil {
		return
	}
	if wq.remote == nil {
		wq.log.Debug().Str("task", string(task.Kind)).Msg("No remote service, not queueing write-back")
		return
	}
	wq.lock.Lock()
	if n := len(wq.tasks); n > 0 && wq.tasks[n-1].coalesces(&task) {
		last := wq.tasks[n-1]
		last.Experience = task.Experience
		last.Profile = task.Profile
		last.Attempts = 0
		wq.log.Debug().Str("task_id", last.ID).Str("task", string(last.Kind)).Msg("Coalesced write-back task")
	} else {
		if task.ID == "" {
			task.ID = methods.RandomID("wb_", 12)
		}
		wq.tasks = append(wq.tasks, &task)
	}
	pending := len(wq.tasks)
	wq.lock.Unlock()
	wq.metrics.pending(pending)

	select {
	case wq.wake <- struct{}{}:
	default:
	}
}

func (wq *WriteBackQueue) Pending() int {
	wq.lock.Lock()
	defer wq.lock.Unlock()
	return len(wq.tasks)
}

// Tasks returns a copy of the queued tasks.
func (wq *WriteBackQueue) Tasks() []Task {
	wq.lock.Lock()
	defer wq.lock.Unlock()
	out := make([]Task, len(wq.tasks))
	for i, task := range wq.tasks {
		out[i] = *task
	}
	return out
}

func (wq *WriteBackQueue) pop() *Task {
	wq.lock.Lock()
	defer wq.lock.Unlock()
	if len(wq.tasks) == 0 {
		return nil
	}
	task := wq.tasks[0]
	wq.tasks = wq.tasks[1:]
	return task
}

func (wq *WriteBackQueue) pushFront(task *Task) {
	wq.lock.Lock()
	wq.tasks = append([]*Task{task}, wq.tasks...)
	pending := len(wq.tasks)
	wq.lock.Unlock()
	wq.metrics.pending(pending)
}

// Flush sends every queued task before returning. It only returns an error
// when ctx ends, in which case the unsent task is put back.
func (wq *WriteBackQueue) Flush(ctx context.Context) error {
	wq.drainLock.Lock()
	defer wq.drainLock.Unlock()
	for {
		task := wq.pop()
		if task == nil {
			wq.metrics.pending(0)
			return nil
		}
		wq.metrics.pending(wq.Pending())
		if err := wq.send(ctx, task); err != nil {
			wq.pushFront(task)
			return err
		}
	}
}

func (wq *WriteBackQueue) send(ctx context.Context, task *Task) error {
	log := wq.log.With().
		Str("task_id", task.ID).
		Str("task", string(task.Kind)).
		Str("profile_id", task.ProfileID).
		Logger()
	for {
		if err := wq.limiter.Wait(ctx); err != nil {
			return err
		}
		err := wq.process(ctx, task)
		if err == nil {
			wq.metrics.writeBack(task.Kind, "ok")
			log.Debug().Msg("Write-back task sent")
			return nil
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
		task.Attempts++
		if task.Attempts >= wq.cfg.MaxAttempts {
			wq.metrics.writeBack(task.Kind, "dropped")
			log.Err(err).Int("attempts", task.Attempts).Msg("Dropping write-back task after repeated failures")
			return nil
		}
		wq.metrics.writeBack(task.Kind, "retry")
		log.Warn().Err(err).Int("attempts", task.Attempts).Msg("Write-back task failed, retrying")
		if err = wq.sleep(ctx, wq.cfg.RetryDelay); err != nil {
			return err
		}
	}
}

func (wq *WriteBackQueue) process(ctx context.Context, task *Task) error {
	switch task.Kind {
	case TaskExperienceSync:
		return wq.remote.UpdateProfile(ctx, task.ProfileID, payload.ExperienceUpdate{
			Experience: nonNilExperience(task.Experience),
		})
	case TaskProfileUpdate:
		if task.Profile == nil {
			return fmt.Errorf("profile update task without profile")
		}
		return wq.remote.UpdateProfile(ctx, task.ProfileID, payload.NewProfileUpdate(task.Profile))
	case TaskPostInsert:
		if task.Post == nil {
			return fmt.Errorf("post insert task without post")
		}
		return wq.remote.InsertPost(ctx, *task.Post)
	default:
		return fmt.Errorf("unknown write-back task kind %q", task.Kind)
	}
}

// Run drains the queue whenever tasks are added until ctx is done.
func (wq *WriteBackQueue) Run(ctx context.Context) error {
	for {
		if err := wq.Flush(ctx); err != nil && ctx.Err() == nil {
			wq.log.Warn().Err(err).Msg("Write-back flush interrupted")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-wq.wake:
		}
	}
}

func nonNilExperience(list []types.Experience) []types.Experience {
	if list == nil {
		return []types.Experience{}
	}
	return list
}
