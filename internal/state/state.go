// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package state tracks scheduled background jobs in a transactional
// in-memory database, so that workers and waiters can observe job
// lifecycle changes through watch channels.
package state

import (
	"io"
	"log"
	"sync"

	"github.com/hashicorp/go-memdb"
)

const jobsTableName = "jobs"

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		jobsTableName: {
			Name: jobsTableName,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &StringerFieldIndexer{Field: "ID"},
				},
				"file_state": {
					Name: "file_state",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&HandleFieldIndexer{Field: "File"},
							&memdb.UintFieldIndex{Field: "State"},
						},
					},
				},
				"file_state_type": {
					Name: "file_state_type",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&HandleFieldIndexer{Field: "File"},
							&memdb.UintFieldIndex{Field: "State"},
							&memdb.StringFieldIndex{Field: "Type"},
						},
					},
				},
				"state": {
					Name: "state",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.UintFieldIndex{Field: "State"},
						},
					},
				},
			},
		},
	},
}

type StateStore struct {
	JobStore *JobStore

	db *memdb.MemDB
}

func NewStateStore() (*StateStore, error) {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}

	return &StateStore{
		db: db,
		JobStore: &JobStore{
			db:        db,
			tableName: jobsTableName,
			logger:    defaultLogger,
			nextJobMu: &sync.Mutex{},
		},
	}, nil
}

func (s *StateStore) SetLogger(logger *log.Logger) {
	s.JobStore.logger = logger
}

var defaultLogger = log.New(io.Discard, "", 0)
