// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package concurrency

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestJobToken_done(t *testing.T) {
	job, token := NewConcurrentJob()

	if job.IsCompleted() {
		t.Fatal("expected fresh job to be incomplete")
	}

	token.Done()
	if !job.IsCompleted() {
		t.Fatal("expected completed job")
	}

	// Done is idempotent
	token.Done()
}

func TestConcurrentJob_wait(t *testing.T) {
	job, token := NewConcurrentJob()

	go func() {
		time.Sleep(10 * time.Millisecond)
		token.Done()
	}()

	if err := job.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestConcurrentJob_waitCancelled(t *testing.T) {
	job, token := NewConcurrentJob()
	defer token.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := job.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %#v", err)
	}
}

func TestJobs_waitForAll(t *testing.T) {
	jobs := NewJobs()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		job, token := NewConcurrentJob()
		jobs.Add(job)

		wg.Add(1)
		go func() {
			defer wg.Done()
			time.Sleep(10 * time.Millisecond)
			token.Done()
		}()
	}

	if err := jobs.WaitForAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if jobs.Count() != 0 {
		t.Fatalf("expected empty registry, %d jobs left", jobs.Count())
	}
	wg.Wait()
}

func TestJobs_waitForAllIncomplete(t *testing.T) {
	jobs := NewJobs()

	job, token := NewConcurrentJob()
	defer token.Done()
	jobs.Add(job)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := jobs.WaitForAll(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %#v", err)
	}
}

func TestJobs_collectsCompleted(t *testing.T) {
	jobs := NewJobs()

	for i := 0; i < 100; i++ {
		job, token := NewConcurrentJob()
		jobs.Add(job)
		token.Done()
	}

	if jobs.Count() != 0 {
		t.Fatalf("expected completed jobs to be collected, %d left", jobs.Count())
	}
}
