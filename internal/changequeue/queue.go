// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package changequeue enforces strict per-file ordering of versioned
// change notifications before they reach the document store.
//
// Editors number every change notification per file. Notifications can
// arrive on concurrent handler goroutines in any order; the queue parks
// early arrivals until their predecessors commit, so the store only
// ever sees version n after version n-1. A version which never arrives
// means the buffer can no longer be trusted, which the sink must treat
// as fatal.
package changequeue

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/source-ls/internal/document"
	"github.com/hashicorp/source-ls/internal/eventbus"
)

// DefaultParkTimeout bounds how long a parked notification waits for
// its predecessors. A missing predecessor past this window is a lost
// version.
const DefaultParkTimeout = 5 * time.Second

// Sink receives ordered change batches.
type Sink interface {
	// OnChanges applies one committed change batch.
	OnChanges(changes document.Changes) error

	// OnLostVersion is called when ordering broke down for file:
	// version got arrived but expected (nil when unknown) never will
	// be satisfied. The buffer content can no longer be trusted, so
	// implementations are expected not to return.
	OnLostVersion(file string, got uint64, expected *uint64)
}

// LostVersionErr is returned when a notification had to be abandoned
// because ordering broke down. It is only observable with a Sink whose
// OnLostVersion returns.
type LostVersionErr struct {
	File    string
	Version uint64
}

func (e *LostVersionErr) Error() string {
	return fmt.Sprintf("%s: lost change version %d", e.File, e.Version)
}

func (e *LostVersionErr) Is(err error) bool {
	_, ok := err.(*LostVersionErr)
	return ok
}

// ChangeQueue serializes versioned change notifications per file.
type ChangeQueue struct {
	sink    Sink
	logger  *log.Logger
	bus     *eventbus.EventBus
	timeout time.Duration

	mu sync.Mutex
	// nextVersions tracks the next expected version per file. A file
	// not present accepts any version as its first.
	nextVersions map[string]uint64
	// parked holds wake channels for notifications which arrived
	// before their predecessors, keyed by file and version.
	parked map[string]map[uint64]chan struct{}
}

func NewChangeQueue(sink Sink) *ChangeQueue {
	return &ChangeQueue{
		sink:         sink,
		logger:       log.New(io.Discard, "", 0),
		timeout:      DefaultParkTimeout,
		nextVersions: make(map[string]uint64),
		parked:       make(map[string]map[uint64]chan struct{}),
	}
}

func (q *ChangeQueue) SetLogger(logger *log.Logger) {
	q.logger = logger
}

// SetEventBus makes the queue publish a DidChange event after every
// committed batch.
func (q *ChangeQueue) SetEventBus(bus *eventbus.EventBus) {
	q.bus = bus
}

// SetParkTimeout overrides how long an early notification waits for its
// predecessors.
func (q *ChangeQueue) SetParkTimeout(timeout time.Duration) {
	q.timeout = timeout
}

// OnChanges hands a versioned change batch for file to the sink once
// all of its predecessors have committed. The first notification ever
// seen for a file is committed immediately, whatever its version.
//
// A batch older than the expected version, or one whose predecessors do
// not commit within the park timeout, is reported to the sink via
// OnLostVersion.
func (q *ChangeQueue) OnChanges(ctx context.Context, file string, version uint64, changes document.Changes) error {
	q.mu.Lock()

	expected, tracked := q.nextVersions[file]
	if tracked && version != expected {
		if version < expected {
			q.mu.Unlock()
			q.logger.Printf("%s: stale change version %d, expected %d", file, version, expected)
			q.sink.OnLostVersion(file, version, &expected)
			return &LostVersionErr{File: file, Version: version}
		}

		q.logger.Printf("%s: parking change version %d until %d commits", file, version, expected)
		wake := make(chan struct{})
		fileParked, ok := q.parked[file]
		if !ok {
			fileParked = make(map[uint64]chan struct{})
			q.parked[file] = fileParked
		}
		fileParked[version] = wake
		q.mu.Unlock()

		timer := time.NewTimer(q.timeout)
		defer timer.Stop()

		select {
		case <-wake:
			q.mu.Lock()
		case <-timer.C:
			q.mu.Lock()
			// the wake-up may have raced the timer; a gone
			// registration means our predecessor committed
			if _, stillParked := q.parked[file][version]; stillParked {
				q.unpark(file, version)
				var expected *uint64
				if next, ok := q.nextVersions[file]; ok {
					expected = &next
				}
				q.mu.Unlock()
				q.logger.Printf("%s: change version %d timed out waiting for predecessors", file, version)
				q.sink.OnLostVersion(file, version, expected)
				return &LostVersionErr{File: file, Version: version}
			}
		case <-ctx.Done():
			q.mu.Lock()
			if _, stillParked := q.parked[file][version]; stillParked {
				q.unpark(file, version)
				q.mu.Unlock()
				return ctx.Err()
			}
		}
	}

	// Holding q.mu: apply and commit, then wake any successor parked
	// on the version we just unblocked.
	sinkErr := q.sink.OnChanges(changes)
	q.nextVersions[file] = version + 1
	if wake, ok := q.parked[file][version+1]; ok {
		close(wake)
		q.unpark(file, version+1)
	}
	q.mu.Unlock()

	if sinkErr != nil {
		return sinkErr
	}

	if q.bus != nil {
		q.bus.DidChange(eventbus.DidChangeEvent{
			Context: ctx,
			Path:    file,
			Version: version,
		})
	}
	return nil
}

// unpark removes a wake registration; the caller holds q.mu.
func (q *ChangeQueue) unpark(file string, version uint64) {
	delete(q.parked[file], version)
	if len(q.parked[file]) == 0 {
		delete(q.parked, file)
	}
}
