// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package vfs

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/hashicorp/source-ls/internal/document"
	"github.com/hashicorp/source-ls/internal/source"
	"github.com/hashicorp/source-ls/internal/span"
)

// cachedFile is a single entry of the documents table.
//
// Entries are treated as immutable once inserted. Any mutation copies
// the entry first (memdb requires copy-on-write for its radix tree to
// stay consistent across snapshots).
type cachedFile[U any] struct {
	Path string

	// Binary marks content which is not valid UTF-8. Text operations
	// on such files fail with BadFileKindErr.
	Binary  bool
	Content []byte

	// Lines is rebuilt whenever Content changes; nil for binary files.
	Lines source.Lines

	// Changed tracks whether the buffer has edits not yet committed
	// to disk.
	Changed bool

	UserData *U
}

func newCachedFile[U any](path string, content []byte) *cachedFile[U] {
	f := &cachedFile[U]{
		Path:    path,
		Content: content,
	}
	if utf8.Valid(content) {
		f.Lines = source.MakeSourceLines(path, content)
	} else {
		f.Binary = true
	}
	return f
}

func (f *cachedFile[U]) Copy() *cachedFile[U] {
	newFile := &cachedFile[U]{
		Path:    f.Path,
		Binary:  f.Binary,
		Content: f.Content,
		Lines:   f.Lines.Copy(),
		Changed: f.Changed,
	}
	if f.UserData != nil {
		data := *f.UserData
		newFile.UserData = &data
	}
	return newFile
}

func (f *cachedFile[U]) contents() FileContents {
	return FileContents{
		Bytes:  f.Content,
		Binary: f.Binary,
	}
}

// line returns the indexed line for a zero-indexed row, including the
// virtual line just past the end of the buffer.
func (f *cachedFile[U]) line(row span.Row[span.ZeroIndexed]) (source.Line, error) {
	idx := int(row.Value())
	if idx >= len(f.Lines) {
		return source.Line{}, document.BadRowErr(row)
	}
	return f.Lines[idx], nil
}

// applyChange splices a single change into the buffer and rebuilds the
// line index. The dirty mark is set and user data cleared as a side
// effect of any successful mutation.
func (f *cachedFile[U]) applyChange(ch document.Change, logger logPrinter) error {
	if f.Binary {
		return &document.BadFileKindErr{Path: f.Path}
	}

	switch c := ch.(type) {
	case document.AddFile:
		f.Content = []byte(c.Text)
	case document.ReplaceText:
		startByte, endByte, err := f.byteRangeForReplace(c, logger)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		buf.Grow(len(f.Content) + len(c.Text) - (endByte - startByte))
		buf.Write(f.Content[:startByte])
		buf.WriteString(c.Text)
		buf.Write(f.Content[endByte:])
		f.Content = buf.Bytes()
	default:
		return fmt.Errorf("unexpected change type %T", ch)
	}

	f.Lines = source.MakeSourceLines(f.Path, f.Content)
	f.Changed = true
	f.UserData = nil
	return nil
}

// byteRangeForReplace locates the removed byte range of a ReplaceText.
//
// When Length is present it is authoritative: the removed range is
// Length source units from the span's start position, possibly crossing
// line boundaries. The span's end row/column are only used otherwise.
func (f *cachedFile[U]) byteRangeForReplace(c document.ReplaceText, logger logPrinter) (int, int, error) {
	rng := c.Span.Span().Range

	startLine, err := f.line(rng.RowStart)
	if err != nil {
		return 0, 0, err
	}
	colOffset, err := c.Span.ByteOffsetInString(startLine.Bytes, rng.ColStart)
	if err != nil {
		return 0, 0, err
	}
	startByte := startLine.Range.Start.Byte + colOffset

	var endByte int
	if c.Length != nil {
		lengthCol := span.NewColumn[span.ZeroIndexed](uint32(*c.Length))
		offset, err := c.Span.ByteOffsetInString(f.Content[startByte:], lengthCol)
		if err != nil {
			return 0, 0, err
		}
		endByte = startByte + offset

		f.flagSpanEndMismatch(c, endByte, logger)
	} else {
		endLine, err := f.line(rng.RowEnd)
		if err != nil {
			return 0, 0, err
		}
		colOffset, err := c.Span.ByteOffsetInString(endLine.Bytes, rng.ColEnd)
		if err != nil {
			return 0, 0, err
		}
		endByte = endLine.Range.Start.Byte + colOffset
	}

	if endByte < startByte {
		return 0, 0, &document.BadLocationErr{
			Detail: fmt.Sprintf("end %d precedes start %d", endByte, startByte),
		}
	}

	return startByte, endByte, nil
}

// flagSpanEndMismatch reports disagreement between an authoritative
// Length and the span's own end position. Clients which cannot compute
// the end position send dummy values there, so this is informational
// only and never resolved either way.
func (f *cachedFile[U]) flagSpanEndMismatch(c document.ReplaceText, lengthEndByte int, logger logPrinter) {
	rng := c.Span.Span().Range

	endLine, err := f.line(rng.RowEnd)
	if err != nil {
		return
	}
	colOffset, err := c.Span.ByteOffsetInString(endLine.Bytes, rng.ColEnd)
	if err != nil {
		return
	}
	spanEndByte := endLine.Range.Start.Byte + colOffset
	if spanEndByte != lengthEndByte {
		logger.Printf("%s: replacement length %d disagrees with span end %s:%s",
			f.Path, *c.Length, rng.RowEnd, rng.ColEnd)
	}
}

type logPrinter interface {
	Printf(format string, v ...interface{})
}
