// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package document holds the value types which describe edits to a
// document buffer, the span encodings those edits arrive in, and the
// error taxonomy of the store.
package document

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/apparentlymart/go-textseg/textseg"
	"github.com/hashicorp/source-ls/internal/span"
)

// Change is one edit unit, either a whole-file replacement or a ranged
// text splice.
type Change interface {
	// FilePath returns the path of the document the change applies to.
	FilePath() string
}

type Changes []Change

// AddFile replaces (or creates) the entire buffer of File.
type AddFile struct {
	File string
	Text string
}

func (c AddFile) FilePath() string {
	return c.File
}

// ReplaceText splices Text into the byte range denoted by Span.
//
// If Length is present it is the authoritative count of source units
// removed, counted in Span's column encoding from the span's start
// position. The span's end row/column are then ignored for locating the
// removed range but are retained on the value. Some clients cannot
// compute the end position reliably and send Length instead.
type ReplaceText struct {
	Span   VfsSpan
	Text   string
	Length *uint64
}

func (c ReplaceText) FilePath() string {
	return c.Span.Span().File
}

type columnEncoding int

const (
	byteOffsets columnEncoding = iota
	utf16CodeUnits
)

// VfsSpan is a span tagged with the column encoding its producer used.
// The store performs no encoding auto-detection; callers pick the
// constructor matching their encoding.
type VfsSpan struct {
	span     span.Span[span.ZeroIndexed]
	encoding columnEncoding
}

// SpanFromBytes tags s as carrying raw byte offset columns.
func SpanFromBytes(s span.Span[span.ZeroIndexed]) VfsSpan {
	return VfsSpan{span: s, encoding: byteOffsets}
}

// SpanFromUTF16 tags s as carrying UTF-16 code unit columns.
func SpanFromUTF16(s span.Span[span.ZeroIndexed]) VfsSpan {
	return VfsSpan{span: s, encoding: utf16CodeUnits}
}

func (vs VfsSpan) Span() span.Span[span.ZeroIndexed] {
	return vs.span
}

// ByteOffsetInString finds the byte offset in content for the given
// column, counted in the span's encoding. content is typically a single
// line, or the remaining buffer when resolving an authoritative Length.
// A column which is out of bounds or which would split a multi-byte code
// point yields BadLocationErr.
func (vs VfsSpan) ByteOffsetInString(content []byte, col span.Column[span.ZeroIndexed]) (int, error) {
	switch vs.encoding {
	case utf16CodeUnits:
		return byteOffsetForUTF16Column(content, col)
	default:
		return byteOffsetForByteColumn(content, col)
	}
}

func byteOffsetForByteColumn(content []byte, col span.Column[span.ZeroIndexed]) (int, error) {
	offset := int(col.Value())
	if offset > len(content) {
		return 0, BadColumnErr(col)
	}
	if offset < len(content) && !utf8.RuneStart(content[offset]) {
		// offset points into the middle of a multi-byte sequence
		return 0, BadColumnErr(col)
	}
	return offset, nil
}

// byteOffsetForUTF16Column edges along content while counting UTF-16
// code units in the UTF-8 buffer. Offsets pointing at the second unit of
// a surrogate pair are rejected rather than rounded, otherwise the store
// would silently get out of sync with the client.
func byteOffsetForUTF16Column(content []byte, col span.Column[span.ZeroIndexed]) (int, error) {
	target := int(col.Value())

	byteCt := 0
	utf16Ct := 0
	remain := content
	for {
		if utf16Ct == target {
			return byteCt, nil
		}
		if utf16Ct > target || len(remain) == 0 {
			return 0, BadColumnErr(col)
		}

		adv, chBytes, _ := textseg.ScanUTF8Sequences(remain, true)
		remain = remain[adv:]
		byteCt += adv
		for len(chBytes) > 0 {
			r, l := utf8.DecodeRune(chBytes)
			chBytes = chBytes[l:]
			c1, c2 := utf16.EncodeRune(r)
			if c1 == 0xfffd && c2 == 0xfffd {
				utf16Ct++ // codepoint fits in one 16-bit unit
			} else {
				utf16Ct += 2 // codepoint requires a surrogate pair
			}
		}
	}
}
