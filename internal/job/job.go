// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package job

import (
	"context"

	"github.com/hashicorp/source-ls/internal/document"
)

type Job struct {
	// Func represents the job to execute
	Func func(ctx context.Context) error

	// File describes the document which the job belongs to,
	// which is used for deduplication of queued jobs (along with Type)
	File document.Handle

	// Type describes type of the job (e.g. ReparseFile),
	// which is used for deduplication of queued jobs along with File.
	Type string

	// Defer is a function to execute after Func is executed
	// and before the job is marked as done (StateDone).
	// This can be used to schedule jobs dependent on the main job.
	Defer DeferFunc
}

// DeferFunc represents a deferred function scheduling more jobs
// based on jobErr (any error returned from the main job).
// Newly queued job IDs should be returned to allow for synchronization.
type DeferFunc func(ctx context.Context, jobErr error) IDs

func (job Job) Copy() Job {
	return Job{
		Func:  job.Func,
		File:  job.File,
		Type:  job.Type,
		Defer: job.Defer,
	}
}
