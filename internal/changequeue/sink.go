// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package changequeue

import (
	"io"
	"log"
	"os"

	"github.com/hashicorp/source-ls/internal/document"
)

// ChangeStore is the subset of the document store the sink feeds.
type ChangeStore interface {
	OnChanges(changes document.Changes) error
}

// VfsSink feeds committed change batches into the document store. A
// lost version terminates the process: with an edit gone missing every
// subsequent buffer state would be silently wrong, and there is no way
// to resynchronize with the client.
type VfsSink struct {
	store  ChangeStore
	logger *log.Logger
}

func NewVfsSink(store ChangeStore) *VfsSink {
	return &VfsSink{
		store:  store,
		logger: log.New(io.Discard, "", 0),
	}
}

func (s *VfsSink) SetLogger(logger *log.Logger) {
	s.logger = logger
}

func (s *VfsSink) OnChanges(changes document.Changes) error {
	return s.store.OnChanges(changes)
}

func (s *VfsSink) OnLostVersion(file string, got uint64, expected *uint64) {
	if expected != nil {
		s.logger.Printf("%s: lost change version, got %d, expected %d; terminating",
			file, got, *expected)
	} else {
		s.logger.Printf("%s: lost change version %d; terminating", file, got)
	}
	os.Exit(1)
}
