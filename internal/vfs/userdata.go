// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package vfs

import (
	"errors"

	"github.com/hashicorp/source-ls/internal/document"
)

// SetUserData attaches data to the cached entry for path, replacing any
// previous value. A nil data detaches.
func (v *Vfs[U]) SetUserData(path string, data *U) error {
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
	f.UserData = data
	if err := txn.Insert(documentsTableName, f); err != nil {
		return err
	}
	txn.Commit()
	return nil
}

// WithUserData runs fn against the user data of path, holding the store
// lock for the duration. fn receives the buffer text (nil for binary
// files) and may mutate the data in place.
//
// Mutations are kept even when fn returns an error; there is no
// rollback. If fn returns NoUserDataErr the data is detached, and the
// error still propagates to the caller.
func (v *Vfs[U]) WithUserData(path string, fn func(text []byte, data *U) error) error {
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
	if f.UserData == nil {
		return &document.NoUserDataErr{Path: path}
	}

	var text []byte
	if !f.Binary {
		text = f.Content
	}

	fnErr := fn(text, f.UserData)
	if errors.Is(fnErr, &document.NoUserDataErr{}) {
		f.UserData = nil
	}

	if err := txn.Insert(documentsTableName, f); err != nil {
		return err
	}
	txn.Commit()
	return fnErr
}

// EnsureUserData attaches user data computed by init unless the entry
// already has some. init receives the buffer text (nil for binary
// files). An init returning NoUserDataErr leaves the entry without data
// and is not treated as a failure.
func (v *Vfs[U]) EnsureUserData(path string, init func(text []byte) (U, error)) error {
	txn := v.db.Txn(true)
	defer txn.Abort()

	obj, err := txn.First(documentsTableName, "id", path)
	if err != nil {
		return err
	}
	if obj == nil {
		return &document.FileNotCachedErr{Path: path}
	}

	f := obj.(*cachedFile[U])
	if f.UserData != nil {
		return nil
	}

	var text []byte
	if !f.Binary {
		text = f.Content
	}

	data, initErr := init(text)
	if initErr != nil {
		if errors.Is(initErr, &document.NoUserDataErr{}) {
			return nil
		}
		return initErr
	}

	f = f.Copy()
	f.UserData = &data
	if err := txn.Insert(documentsTableName, f); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
