// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package vfs

import (
	"fmt"

	"github.com/hashicorp/source-ls/internal/document"
	"github.com/hashicorp/source-ls/internal/span"
)

// LoadLine returns a single line of path including its trailing newline
// (if any), loading the file on a cache miss. The row just past the
// last newline resolves to an empty string.
func (v *Vfs[U]) LoadLine(path string, row span.Row[span.ZeroIndexed]) (string, error) {
	f, err := v.ensureTextFile(path)
	if err != nil {
		return "", err
	}

	line, err := f.line(row)
	if err != nil {
		return "", err
	}
	return string(line.Bytes), nil
}

// LoadLines returns the text between the start of lineStart and the
// start of lineEnd (exclusive). lineEnd is clamped to the end of the
// buffer.
func (v *Vfs[U]) LoadLines(path string, lineStart, lineEnd span.Row[span.ZeroIndexed]) (string, error) {
	f, err := v.ensureTextFile(path)
	if err != nil {
		return "", err
	}

	startLine, err := f.line(lineStart)
	if err != nil {
		return "", err
	}

	endIdx := int(lineEnd.Value())
	if endIdx > len(f.Lines)-1 {
		endIdx = len(f.Lines) - 1
	}
	startByte := startLine.Range.Start.Byte
	endByte := f.Lines[endIdx].Range.Start.Byte
	if endByte < startByte {
		return "", &document.BadLocationErr{
			Detail: fmt.Sprintf("line %s follows line %s", lineStart, lineEnd),
		}
	}

	return string(f.Content[startByte:endByte]), nil
}

// LoadSpan returns the text within s, addressing columns as byte
// offsets. The end row is clamped to the last line of the buffer.
func (v *Vfs[U]) LoadSpan(s span.Span[span.ZeroIndexed]) (string, error) {
	f, err := v.ensureTextFile(s.File)
	if err != nil {
		return "", err
	}

	startLine, err := f.line(s.Range.RowStart)
	if err != nil {
		return "", err
	}

	endIdx := int(s.Range.RowEnd.Value())
	if endIdx > len(f.Lines)-1 {
		endIdx = len(f.Lines) - 1
	}

	startByte := startLine.Range.Start.Byte + int(s.Range.ColStart.Value())
	endByte := f.Lines[endIdx].Range.Start.Byte + int(s.Range.ColEnd.Value())
	if startByte > endByte || endByte > len(f.Content) {
		return "", &document.BadLocationErr{
			Detail: fmt.Sprintf("byte range %d:%d out of bounds in %s", startByte, endByte, s.File),
		}
	}

	return string(f.Content[startByte:endByte]), nil
}

// ForEachLine calls fn for every line of path in order, passing the
// line content (including any trailing newline) and its zero-indexed
// row. Iteration stops at the first error, which is returned.
func (v *Vfs[U]) ForEachLine(path string, fn func(line []byte, row int) error) error {
	f, err := v.ensureTextFile(path)
	if err != nil {
		return err
	}

	// the last entry is the virtual line past the end of the buffer
	for i, line := range f.Lines[:len(f.Lines)-1] {
		if err := fn(line.Bytes, i); err != nil {
			return err
		}
	}
	return nil
}
