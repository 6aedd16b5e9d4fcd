// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package state

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/hashicorp/go-memdb"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-uuid"
	"github.com/hashicorp/source-ls/internal/document"
	"github.com/hashicorp/source-ls/internal/job"
)

type JobStore struct {
	db        *memdb.MemDB
	tableName string
	logger    *log.Logger

	nextJobMu *sync.Mutex
}

type ScheduledJob struct {
	job.ID
	job.Job
	State State

	// JobErr contains error when job finishes (State = StateDone)
	JobErr error
	// DeferredJobIDs contains IDs of any deferred jobs
	// set when job finishes (State = StateDone)
	DeferredJobIDs job.IDs
}

func (sj *ScheduledJob) Copy() *ScheduledJob {
	return &ScheduledJob{
		ID:             sj.ID,
		Job:            sj.Job.Copy(),
		State:          sj.State,
		JobErr:         sj.JobErr,
		DeferredJobIDs: sj.DeferredJobIDs.Copy(),
	}
}

//go:generate go run golang.org/x/tools/cmd/stringer -type=State -output=jobs_state_string.go
type State uint

const (
	StateQueued State = iota
	StateRunning
	StateDone
)

// EnqueueJob adds a job to the queue, deduplicating it against any job
// of the same type for the same file which is already queued or
// running.
func (js *JobStore) EnqueueJob(newJob job.Job) (job.ID, error) {
	jobID, queued, err := js.jobExists(newJob, StateQueued)
	if err != nil {
		return "", err
	}
	if queued {
		return jobID, nil
	}

	jobID, running, err := js.jobExists(newJob, StateRunning)
	if err != nil {
		return "", err
	}
	if running {
		return jobID, nil
	}

	newID, err := uuid.GenerateUUID()
	if err != nil {
		return "", err
	}
	newJobID := job.ID(newID)

	txn := js.db.Txn(true)
	defer txn.Abort()

	err = txn.Insert(js.tableName, &ScheduledJob{
		ID:    newJobID,
		Job:   newJob,
		State: StateQueued,
	})
	if err != nil {
		return "", err
	}

	js.logger.Printf("JOBS: Enqueueing new job: %q for %q", newJob.Type, newJob.File.FullURI())

	txn.Commit()

	return newJobID, nil
}

// DequeueJobsForFile marks any queued jobs for the given file as done
// without running them, e.g. after the file was evicted.
func (js *JobStore) DequeueJobsForFile(file document.Handle) error {
	txn := js.db.Txn(true)
	defer txn.Abort()

	it, err := txn.Get(js.tableName, "file_state", file, StateQueued)
	if err != nil {
		return fmt.Errorf("failed to find queued jobs for %q: %w", file.FullURI(), err)
	}

	for obj := it.Next(); obj != nil; obj = it.Next() {
		sJob := obj.(*ScheduledJob)

		sj, err := copyJob(txn, js.tableName, sJob.ID)
		if err != nil {
			return err
		}

		_, err = txn.DeleteAll(js.tableName, "id", sJob.ID)
		if err != nil {
			return err
		}

		sj.State = StateDone
		sj.Defer = nil
		sj.Func = nil
		sj.JobErr = fmt.Errorf("job dequeued")

		err = txn.Insert(js.tableName, sj)
		if err != nil {
			return err
		}
	}

	txn.Commit()
	return nil
}

func (js *JobStore) jobExists(j job.Job, state State) (job.ID, bool, error) {
	txn := js.db.Txn(false)

	obj, err := txn.First(js.tableName, "file_state_type", j.File, state, j.Type)
	if err != nil {
		return "", false, err
	}
	if obj != nil {
		sj := obj.(*ScheduledJob)
		return sj.ID, true, nil
	}

	return "", false, nil
}

// AwaitNextJob blocks until a queued job is available, marks it as
// running and returns it.
func (js *JobStore) AwaitNextJob(ctx context.Context) (job.ID, job.Job, error) {
	// Locking is needed if same query is executed in multiple threads,
	// i.e. this method is called at the same time from different threads, at
	// which point txn.FirstWatch would return the same job to more than
	// one thread and we would then end up executing it more than once.
	js.nextJobMu.Lock()
	defer js.nextJobMu.Unlock()

	return js.awaitNextJob(ctx)
}

func (js *JobStore) awaitNextJob(ctx context.Context) (job.ID, job.Job, error) {
	txn := js.db.Txn(false)

	wCh, obj, err := txn.FirstWatch(js.tableName, "state", StateQueued)
	if err != nil {
		return "", job.Job{}, err
	}

	if obj == nil {
		select {
		case <-wCh:
		case <-ctx.Done():
			return "", job.Job{}, ctx.Err()
		}

		return js.awaitNextJob(ctx)
	}

	sJob := obj.(*ScheduledJob)

	err = js.markJobAsRunning(sJob.ID)
	if err != nil {
		return "", job.Job{}, err
	}

	js.logger.Printf("JOBS: Dispatching next job: %q for %q", sJob.Type, sJob.File.FullURI())
	return sJob.ID, sJob.Job, nil
}

// WaitForJobs blocks until all given jobs (and any jobs they defer) are
// done. Errors the jobs themselves returned are collected and returned
// together.
func (js *JobStore) WaitForJobs(ctx context.Context, ids ...job.ID) error {
	if len(ids) == 0 {
		return nil
	}

	var result *multierror.Error

	deferredJobIds := make(job.IDs, 0)
	for _, id := range ids {
		dIds, jobErr, err := js.waitForJobId(ctx, id)
		if err != nil {
			return err
		}
		if jobErr != nil {
			result = multierror.Append(result, jobErr)
		}
		deferredJobIds = append(deferredJobIds, dIds...)
	}

	if err := js.WaitForJobs(ctx, deferredJobIds...); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func (js *JobStore) waitForJobId(ctx context.Context, id job.ID) (job.IDs, error, error) {
	txn := js.db.Txn(false)

	wCh, obj, err := txn.FirstWatch(js.tableName, "id", id)
	if err != nil {
		return nil, nil, err
	}
	if obj == nil {
		return nil, nil, jobNotFound{ID: id}
	}

	sJob := obj.(*ScheduledJob)
	if sJob.State != StateDone {
		select {
		case <-wCh:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}

		return js.waitForJobId(ctx, id)
	}

	return sJob.DeferredJobIDs, sJob.JobErr, nil
}

func (js *JobStore) markJobAsRunning(id job.ID) error {
	txn := js.db.Txn(true)
	defer txn.Abort()

	sj, err := copyJob(txn, js.tableName, id)
	if err != nil {
		return err
	}

	_, err = txn.DeleteAll(js.tableName, "id", id)
	if err != nil {
		return err
	}

	sj.State = StateRunning

	err = txn.Insert(js.tableName, sj)
	if err != nil {
		return err
	}

	txn.Commit()

	return nil
}

func (js *JobStore) FinishJob(id job.ID, jobErr error, deferredJobIds ...job.ID) error {
	txn := js.db.Txn(true)
	defer txn.Abort()

	sj, err := copyJob(txn, js.tableName, id)
	if err != nil {
		return err
	}

	js.logger.Printf("JOBS: Finishing job: %q for %q (err = %#v)", sj.Type, sj.File.FullURI(), jobErr)

	_, err = txn.DeleteAll(js.tableName, "id", id)
	if err != nil {
		return err
	}

	sj.Func = nil
	sj.State = StateDone
	sj.JobErr = jobErr
	sj.DeferredJobIDs = deferredJobIds

	err = txn.Insert(js.tableName, sj)
	if err != nil {
		return err
	}

	txn.Commit()

	return nil
}

func (js *JobStore) ListQueuedJobs() (job.IDs, error) {
	txn := js.db.Txn(false)

	it, err := txn.Get(js.tableName, "state", StateQueued)
	if err != nil {
		return nil, err
	}

	jobIDs := make(job.IDs, 0)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		sj := obj.(*ScheduledJob)
		jobIDs = append(jobIDs, sj.ID)
	}

	return jobIDs, nil
}

func copyJob(txn *memdb.Txn, tableName string, id job.ID) (*ScheduledJob, error) {
	obj, err := txn.First(tableName, "id", id)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		sj := obj.(*ScheduledJob)
		return sj.Copy(), nil
	}
	return nil, jobNotFound{ID: id}
}
