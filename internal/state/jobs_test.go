// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/source-ls/internal/document"
	"github.com/hashicorp/source-ls/internal/job"
)

func TestJobStore_EnqueueJob(t *testing.T) {
	ss, err := NewStateStore()
	if err != nil {
		t.Fatal(err)
	}

	id1, err := ss.JobStore.EnqueueJob(job.Job{
		Func: func(ctx context.Context) error {
			return nil
		},
		File: document.HandleFromPath("/test/file.txt"),
		Type: "test-type",
	})
	if err != nil {
		t.Fatal(err)
	}
	id2, err := ss.JobStore.EnqueueJob(job.Job{
		Func: func(ctx context.Context) error {
			return nil
		},
		File: document.HandleFromPath("/test/another.txt"),
		Type: "test-type",
	})
	if err != nil {
		t.Fatal(err)
	}

	ids, err := ss.JobStore.ListQueuedJobs()
	if err != nil {
		t.Fatal(err)
	}

	expectedIds := job.IDs{id1, id2}
	if diff := cmp.Diff(expectedIds, ids); diff != "" {
		t.Fatalf("unexpected job IDs: %s", diff)
	}
}

func TestJobStore_EnqueueJob_dedup(t *testing.T) {
	ss, err := NewStateStore()
	if err != nil {
		t.Fatal(err)
	}

	newJob := job.Job{
		Func: func(ctx context.Context) error {
			return nil
		},
		File: document.HandleFromPath("/test/file.txt"),
		Type: "test-type",
	}

	id1, err := ss.JobStore.EnqueueJob(newJob)
	if err != nil {
		t.Fatal(err)
	}
	id2, err := ss.JobStore.EnqueueJob(newJob)
	if err != nil {
		t.Fatal(err)
	}

	if id1 != id2 {
		t.Fatalf("expected duplicate job to be deduplicated, given IDs %q and %q",
			id1, id2)
	}

	// a different type for the same file is a separate job
	newJob.Type = "another-type"
	id3, err := ss.JobStore.EnqueueJob(newJob)
	if err != nil {
		t.Fatal(err)
	}
	if id3 == id1 {
		t.Fatalf("expected separate job for a different type, given ID %q", id3)
	}
}

func TestJobStore_AwaitNextJob(t *testing.T) {
	ss, err := NewStateStore()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancelFunc := context.WithTimeout(context.Background(), 250*time.Millisecond)
	t.Cleanup(cancelFunc)

	_, _, err = ss.JobStore.AwaitNextJob(ctx)
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, given: %#v", err)
	}

	id, err := ss.JobStore.EnqueueJob(job.Job{
		Func: func(ctx context.Context) error {
			return nil
		},
		File: document.HandleFromPath("/test/file.txt"),
		Type: "test-type",
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx = context.Background()
	nextId, nextJob, err := ss.JobStore.AwaitNextJob(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if nextId != id {
		t.Fatalf("expected next job ID %q, given %q", id, nextId)
	}
	if nextJob.Type != "test-type" {
		t.Fatalf("unexpected job type: %q", nextJob.Type)
	}

	// a dispatched job is no longer queued
	ids, err := ss.JobStore.ListQueuedJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no queued jobs, given %q", ids)
	}
}

func TestJobStore_WaitForJobs(t *testing.T) {
	ss, err := NewStateStore()
	if err != nil {
		t.Fatal(err)
	}

	id, err := ss.JobStore.EnqueueJob(job.Job{
		Func: func(ctx context.Context) error {
			return nil
		},
		File: document.HandleFromPath("/test/file.txt"),
		Type: "test-type",
	})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		ctx := context.Background()
		nextId, nextJob, err := ss.JobStore.AwaitNextJob(ctx)
		if err != nil {
			t.Error(err)
			return
		}
		jobErr := nextJob.Func(ctx)
		if err := ss.JobStore.FinishJob(nextId, jobErr); err != nil {
			t.Error(err)
		}
	}()

	ctx, cancelFunc := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancelFunc)

	if err := ss.JobStore.WaitForJobs(ctx, id); err != nil {
		t.Fatal(err)
	}
	wg.Wait()
}

func TestJobStore_WaitForJobs_jobError(t *testing.T) {
	ss, err := NewStateStore()
	if err != nil {
		t.Fatal(err)
	}

	jobErr := fmt.Errorf("job blew up")
	id, err := ss.JobStore.EnqueueJob(job.Job{
		Func: func(ctx context.Context) error {
			return jobErr
		},
		File: document.HandleFromPath("/test/file.txt"),
		Type: "test-type",
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	nextId, nextJob, err := ss.JobStore.AwaitNextJob(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := ss.JobStore.FinishJob(nextId, nextJob.Func(ctx)); err != nil {
		t.Fatal(err)
	}

	err = ss.JobStore.WaitForJobs(ctx, id)
	if err == nil {
		t.Fatal("expected job error to propagate")
	}
	if !errors.Is(err, jobErr) {
		t.Fatalf("expected job error, given: %#v", err)
	}
}

func TestJobStore_WaitForJobs_deferred(t *testing.T) {
	ss, err := NewStateStore()
	if err != nil {
		t.Fatal(err)
	}

	var (
		mu       sync.Mutex
		executed []string
	)
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		executed = append(executed, name)
	}

	id, err := ss.JobStore.EnqueueJob(job.Job{
		Func: func(ctx context.Context) error {
			record("main")
			return nil
		},
		File: document.HandleFromPath("/test/file.txt"),
		Type: "main-type",
		Defer: func(ctx context.Context, jobErr error) job.IDs {
			deferredId, err := ss.JobStore.EnqueueJob(job.Job{
				Func: func(ctx context.Context) error {
					record("deferred")
					return nil
				},
				File: document.HandleFromPath("/test/file.txt"),
				Type: "deferred-type",
			})
			if err != nil {
				return nil
			}
			return job.IDs{deferredId}
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	// worker loop processing both the main and the deferred job
	ctx, cancelFunc := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancelFunc)
	go func() {
		for {
			nextId, nextJob, err := ss.JobStore.AwaitNextJob(ctx)
			if err != nil {
				return
			}
			jobErr := nextJob.Func(ctx)

			var deferredIds job.IDs
			if nextJob.Defer != nil {
				deferredIds = nextJob.Defer(ctx, jobErr)
			}
			if err := ss.JobStore.FinishJob(nextId, jobErr, deferredIds...); err != nil {
				return
			}
		}
	}()

	if err := ss.JobStore.WaitForJobs(ctx, id); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	expected := []string{"main", "deferred"}
	if diff := cmp.Diff(expected, executed); diff != "" {
		t.Fatalf("unexpected execution order: %s", diff)
	}
}

func TestJobStore_DequeueJobsForFile(t *testing.T) {
	ss, err := NewStateStore()
	if err != nil {
		t.Fatal(err)
	}

	handle := document.HandleFromPath("/test/file.txt")
	id, err := ss.JobStore.EnqueueJob(job.Job{
		Func: func(ctx context.Context) error {
			t.Error("dequeued job must not run")
			return nil
		},
		File: handle,
		Type: "test-type",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := ss.JobStore.DequeueJobsForFile(handle); err != nil {
		t.Fatal(err)
	}

	ids, err := ss.JobStore.ListQueuedJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected no queued jobs, given %q", ids)
	}

	// the dequeued job is done, with an error explaining why
	ctx, cancelFunc := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancelFunc)
	err = ss.JobStore.WaitForJobs(ctx, id)
	if err == nil || err.Error() == "" {
		t.Fatal("expected dequeue error to propagate")
	}
}
