// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package document

import (
	"fmt"

	"github.com/hashicorp/source-ls/internal/span"
)

// FileNotCachedErr is returned when an operation requiring a cached
// entry finds none.
type FileNotCachedErr struct {
	Path string
}

func (e *FileNotCachedErr) Error() string {
	msg := "file is not cached"
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, msg)
	}
	return msg
}

func (e *FileNotCachedErr) Is(err error) bool {
	_, ok := err.(*FileNotCachedErr)
	return ok
}

// NoUserDataErr indicates the file is cached but no user data was set
// for it. This is not necessarily an error condition for the caller.
type NoUserDataErr struct {
	Path string
}

func (e *NoUserDataErr) Error() string {
	msg := "no user data for file"
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, msg)
	}
	return msg
}

func (e *NoUserDataErr) Is(err error) bool {
	_, ok := err.(*NoUserDataErr)
	return ok
}

// BadLocationErr is returned when a span falls outside buffer bounds or
// would split a multi-byte code point.
type BadLocationErr struct {
	Detail string
}

func (e *BadLocationErr) Error() string {
	msg := "location not within file"
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

func (e *BadLocationErr) Is(err error) bool {
	_, ok := err.(*BadLocationErr)
	return ok
}

// BadRowErr returns a BadLocationErr for a row not within the file.
func BadRowErr(row span.Row[span.ZeroIndexed]) error {
	return &BadLocationErr{Detail: fmt.Sprintf("row %s", row)}
}

// BadColumnErr returns a BadLocationErr for a column not within its
// line, or one which splits a multi-byte code point.
func BadColumnErr(col span.Column[span.ZeroIndexed]) error {
	return &BadLocationErr{Detail: fmt.Sprintf("column %s", col)}
}

// BadFileKindErr is returned for a text operation attempted on a file
// of the wrong kind (e.g. a binary file).
type BadFileKindErr struct {
	Path string
}

func (e *BadFileKindErr) Error() string {
	msg := "file is not the correct kind for the operation"
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, msg)
	}
	return msg
}

func (e *BadFileKindErr) Is(err error) bool {
	_, ok := err.(*BadFileKindErr)
	return ok
}

// IoErr wraps a loader failure for the given path.
type IoErr struct {
	Path string
	Err  error
}

func (e *IoErr) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Err)
}

func (e *IoErr) Unwrap() error {
	return e.Err
}

func (e *IoErr) Is(err error) bool {
	_, ok := err.(*IoErr)
	return ok
}
