// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package vfs implements the in-memory document store. It keeps the
// canonical buffer for every open file, applies edits arriving from the
// client and lazily loads anything else through a FileLoader.
package vfs

import (
	"context"
	"io"
	"log"

	"github.com/hashicorp/go-memdb"
	"github.com/hashicorp/source-ls/internal/document"
	"github.com/hashicorp/source-ls/internal/eventbus"
	"golang.org/x/sync/singleflight"
)

const documentsTableName = "documents"

var dbSchema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		documentsTableName: {
			Name: documentsTableName,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Path"},
				},
			},
		},
	},
}

// FileContents is the raw content of a cached file as returned to
// readers. Bytes must not be mutated; edits go through OnChanges.
type FileContents struct {
	Bytes  []byte
	Binary bool
}

// Vfs is the document store. The type parameter U is per-file user data
// which consumers (such as analysis passes) attach to buffers; any edit
// to a buffer invalidates its user data.
//
// All methods are safe for concurrent use.
type Vfs[U any] struct {
	db     *memdb.MemDB
	loader FileLoader
	logger *log.Logger
	bus    *eventbus.EventBus

	// loadGroup collapses concurrent cache misses for the same path
	// into a single loader call.
	loadGroup singleflight.Group
}

func NewVfs[U any](loader FileLoader) (*Vfs[U], error) {
	db, err := memdb.NewMemDB(dbSchema)
	if err != nil {
		return nil, err
	}

	return &Vfs[U]{
		db:     db,
		loader: loader,
		logger: log.New(io.Discard, "", 0),
	}, nil
}

func (v *Vfs[U]) SetLogger(logger *log.Logger) {
	v.logger = logger
}

// SetEventBus makes the store publish save events.
func (v *Vfs[U]) SetEventBus(bus *eventbus.EventBus) {
	v.bus = bus
}

// Load returns the contents of path, reading it through the loader on a
// cache miss. A loaded file enters the cache clean, i.e. without the
// dirty mark.
func (v *Vfs[U]) Load(path string) (FileContents, error) {
	f, err := v.ensureFile(path)
	if err != nil {
		return FileContents{}, err
	}
	return f.contents(), nil
}

// ensureFile returns the cached entry for path, loading it on a miss.
func (v *Vfs[U]) ensureFile(path string) (*cachedFile[U], error) {
	txn := v.db.Txn(false)
	obj, err := txn.First(documentsTableName, "id", path)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		return obj.(*cachedFile[U]), nil
	}

	res, err, _ := v.loadGroup.Do(path, func() (interface{}, error) {
		return v.loadFile(path)
	})
	if err != nil {
		return nil, err
	}
	return res.(*cachedFile[U]), nil
}

// ensureTextFile is ensureFile restricted to text files.
func (v *Vfs[U]) ensureTextFile(path string) (*cachedFile[U], error) {
	f, err := v.ensureFile(path)
	if err != nil {
		return nil, err
	}
	if f.Binary {
		return nil, &document.BadFileKindErr{Path: path}
	}
	return f, nil
}

func (v *Vfs[U]) loadFile(path string) (*cachedFile[U], error) {
	data, err := v.loader.ReadFile(path)
	if err != nil {
		return nil, &document.IoErr{Path: path, Err: err}
	}

	txn := v.db.Txn(true)
	defer txn.Abort()

	// An edit or SetFile may have raced the loader; the cached entry
	// wins over the stale read.
	obj, err := txn.First(documentsTableName, "id", path)
	if err != nil {
		return nil, err
	}
	if obj != nil {
		return obj.(*cachedFile[U]), nil
	}

	f := newCachedFile[U](path, data)
	if err := txn.Insert(documentsTableName, f); err != nil {
		return nil, err
	}
	txn.Commit()

	v.logger.Printf("loaded %s (%d bytes)", path, len(data))
	return f, nil
}

// OnChanges applies a batch of changes. Changes for the same file keep
// their relative order; each file is processed in the order it first
// appears in the batch. A file not yet cached is read through the
// loader first, unless its first change is a whole-file AddFile.
func (v *Vfs[U]) OnChanges(changes document.Changes) error {
	for _, fc := range coalesceChanges(changes) {
		if err := v.changeFile(fc.path, fc.changes); err != nil {
			return err
		}
	}
	return nil
}

type fileChanges struct {
	path    string
	changes document.Changes
}

func coalesceChanges(changes document.Changes) []fileChanges {
	index := make(map[string]int)
	grouped := make([]fileChanges, 0, 1)
	for _, ch := range changes {
		path := ch.FilePath()
		i, ok := index[path]
		if !ok {
			i = len(grouped)
			index[path] = i
			grouped = append(grouped, fileChanges{path: path})
		}
		grouped[i].changes = append(grouped[i].changes, ch)
	}
	return grouped
}

func (v *Vfs[U]) changeFile(path string, changes document.Changes) error {
	txn := v.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(documentsTableName, "id", path)
	if err != nil {
		return err
	}

	var f *cachedFile[U]
	if obj != nil {
		f = obj.(*cachedFile[U]).Copy()
	} else if af, ok := changes[0].(document.AddFile); ok {
		// No point reading stale content from disk when the first
		// change replaces the whole buffer anyway.
		f = newCachedFile[U](path, []byte(af.Text))
		f.Changed = true
		changes = changes[1:]
	} else {
		data, err := v.loader.ReadFile(path)
		if err != nil {
			return &document.IoErr{Path: path, Err: err}
		}
		f = newCachedFile[U](path, data)
	}

	for _, ch := range changes {
		if err := f.applyChange(ch, v.logger); err != nil {
			return err
		}
	}

	if err := txn.Insert(documentsTableName, f); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// SetFile replaces (or creates) the buffer for path without consulting
// the loader. The buffer enters the cache dirty with no user data.
func (v *Vfs[U]) SetFile(path string, text string) error {
	txn := v.db.Txn(true)
	defer txn.Abort()

	f := newCachedFile[U](path, []byte(text))
	f.Changed = true
	if err := txn.Insert(documentsTableName, f); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Flush evicts path from the cache, discarding any unsaved edits. It is
// a no-op for files which are not cached.
func (v *Vfs[U]) Flush(path string) error {
	txn := v.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(documentsTableName, "id", path); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// FileSaved records that the client wrote path to disk: the buffer is
// committed and evicted, so the next reader sees the on-disk content.
func (v *Vfs[U]) FileSaved(path string) error {
	txn := v.db.Txn(true)
	defer txn.Abort()

	// Save notifications can arrive for files which were never opened;
	// DeleteAll tolerates the missing entry.
	if _, err := txn.DeleteAll(documentsTableName, "id", path); err != nil {
		return err
	}
	txn.Commit()

	if v.bus != nil {
		v.bus.DidSave(eventbus.DidSaveEvent{
			Context: context.Background(),
			Path:    path,
		})
	}
	return nil
}

// FileIsSynced reports whether the cached buffer for path matches the
// on-disk content, i.e. carries no dirty mark.
func (v *Vfs[U]) FileIsSynced(path string) (bool, error) {
	txn := v.db.Txn(false)
	obj, err := txn.First(documentsTableName, "id", path)
	if err != nil {
		return false, err
	}
	if obj == nil {
		return false, &document.FileNotCachedErr{Path: path}
	}
	return !obj.(*cachedFile[U]).Changed, nil
}

// HasChanges reports whether any cached buffer is dirty.
func (v *Vfs[U]) HasChanges() (bool, error) {
	txn := v.db.Txn(false)
	it, err := txn.Get(documentsTableName, "id")
	if err != nil {
		return false, err
	}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		if obj.(*cachedFile[U]).Changed {
			return true, nil
		}
	}
	return false, nil
}

// GetCachedFiles returns the text of every cached text file, keyed by
// path. Binary files are skipped.
func (v *Vfs[U]) GetCachedFiles() (map[string]string, error) {
	return v.collectFiles(func(f *cachedFile[U]) bool {
		return !f.Binary
	})
}

// GetChanges returns the text of every dirty text file, keyed by path.
func (v *Vfs[U]) GetChanges() (map[string]string, error) {
	return v.collectFiles(func(f *cachedFile[U]) bool {
		return !f.Binary && f.Changed
	})
}

func (v *Vfs[U]) collectFiles(keep func(*cachedFile[U]) bool) (map[string]string, error) {
	txn := v.db.Txn(false)
	it, err := txn.Get(documentsTableName, "id")
	if err != nil {
		return nil, err
	}

	files := make(map[string]string)
	for obj := it.Next(); obj != nil; obj = it.Next() {
		f := obj.(*cachedFile[U])
		if keep(f) {
			files[f.Path] = string(f.Content)
		}
	}
	return files, nil
}

// WriteFile flushes the cached buffer for path to the loader and clears
// the dirty mark on success.
func (v *Vfs[U]) WriteFile(path string) error {
	txn := v.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(documentsTableName, "id", path)
	if err != nil {
		return err
	}
	if obj == nil {
		return &document.FileNotCachedErr{Path: path}
	}

	f := obj.(*cachedFile[U]).Copy()
	if err := v.loader.WriteFile(path, f.Content); err != nil {
		return &document.IoErr{Path: path, Err: err}
	}

	f.Changed = false
	if err := txn.Insert(documentsTableName, f); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// Clear evicts every cached file.
func (v *Vfs[U]) Clear() error {
	txn := v.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(documentsTableName, "id"); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
