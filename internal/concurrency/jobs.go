// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package concurrency tracks in-flight background work so that a server
// can block until everything spawned on behalf of a request has
// finished, e.g. before shutdown or in tests.
package concurrency

import (
	"context"
	"io"
	"log"
	"runtime"
	"sync"
)

// ConcurrentJob is the waitable half of one unit of background work.
type ConcurrentJob struct {
	done <-chan struct{}
}

// JobToken is the completion half: whoever performs the work holds the
// token and calls Done when finished. Dropping a token without calling
// Done is a programming error which a finalizer turns into a crash
// rather than an indefinite hang.
type JobToken struct {
	done chan struct{}
	once sync.Once
}

// NewConcurrentJob returns a connected job/token pair.
func NewConcurrentJob() (*ConcurrentJob, *JobToken) {
	done := make(chan struct{})
	token := &JobToken{done: done}
	runtime.SetFinalizer(token, func(t *JobToken) {
		select {
		case <-t.done:
		default:
			panic("concurrency: job token dropped without completing")
		}
	})
	return &ConcurrentJob{done: done}, token
}

// Done marks the work as finished, releasing all waiters. It is safe to
// call more than once.
func (t *JobToken) Done() {
	t.once.Do(func() {
		runtime.SetFinalizer(t, nil)
		close(t.done)
	})
}

func (j *ConcurrentJob) IsCompleted() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the job completes or ctx is done.
func (j *ConcurrentJob) Wait(ctx context.Context) error {
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs is a registry of in-flight work. Completed entries are collected
// on every mutation, so the registry stays small however many jobs pass
// through it.
type Jobs struct {
	logger *log.Logger

	mu   sync.Mutex
	jobs []*ConcurrentJob
}

func NewJobs() *Jobs {
	return &Jobs{
		logger: log.New(io.Discard, "", 0),
	}
}

func (js *Jobs) SetLogger(logger *log.Logger) {
	js.logger = logger
}

func (js *Jobs) Add(job *ConcurrentJob) {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.collect()
	js.jobs = append(js.jobs, job)
}

// Count returns the number of jobs still in flight.
func (js *Jobs) Count() int {
	js.mu.Lock()
	defer js.mu.Unlock()
	js.collect()
	return len(js.jobs)
}

// WaitForAll blocks until every registered job completes or ctx is
// done. Jobs registered while waiting are waited for as well.
func (js *Jobs) WaitForAll(ctx context.Context) error {
	for {
		js.mu.Lock()
		js.collect()
		if len(js.jobs) == 0 {
			js.mu.Unlock()
			return nil
		}
		job := js.jobs[0]
		js.mu.Unlock()

		js.logger.Printf("waiting for %d remaining jobs", js.Count())
		if err := job.Wait(ctx); err != nil {
			return err
		}
	}
}

// collect drops completed jobs; the caller holds js.mu.
func (js *Jobs) collect() {
	remaining := js.jobs[:0]
	for _, job := range js.jobs {
		if !job.IsCompleted() {
			remaining = append(remaining, job)
		}
	}
	for i := len(remaining); i < len(js.jobs); i++ {
		js.jobs[i] = nil
	}
	js.jobs = remaining
}
