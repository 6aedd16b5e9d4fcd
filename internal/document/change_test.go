// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package document

import (
	"errors"
	"testing"

	"github.com/hashicorp/source-ls/internal/span"
)

func zeroSpan(rowStart, rowEnd, colStart, colEnd uint32, file string) span.Span[span.ZeroIndexed] {
	return span.NewSpan(
		span.NewRow[span.ZeroIndexed](rowStart),
		span.NewRow[span.ZeroIndexed](rowEnd),
		span.NewColumn[span.ZeroIndexed](colStart),
		span.NewColumn[span.ZeroIndexed](colEnd),
		file,
	)
}

func TestByteOffsetInString_bytes(t *testing.T) {
	vs := SpanFromBytes(zeroSpan(0, 0, 0, 0, "foo"))

	testCases := []struct {
		content        string
		col            uint32
		expectedOffset int
	}{
		{"Hello", 0, 0},
		{"Hello", 3, 3},
		{"Hello", 5, 5},
		{"x😢y", 1, 1},
		{"x😢y", 5, 5},
	}

	for _, tc := range testCases {
		offset, err := vs.ByteOffsetInString([]byte(tc.content), span.NewColumn[span.ZeroIndexed](tc.col))
		if err != nil {
			t.Fatalf("%q col %d: unexpected error: %s", tc.content, tc.col, err)
		}
		if offset != tc.expectedOffset {
			t.Fatalf("%q col %d: expected offset %d, got %d",
				tc.content, tc.col, tc.expectedOffset, offset)
		}
	}
}

func TestByteOffsetInString_bytesInvalid(t *testing.T) {
	vs := SpanFromBytes(zeroSpan(0, 0, 0, 0, "foo"))

	// column past the end of the line
	_, err := vs.ByteOffsetInString([]byte("Hello"), span.NewColumn[span.ZeroIndexed](6))
	if !errors.Is(err, &BadLocationErr{}) {
		t.Fatalf("expected BadLocationErr, got %#v", err)
	}

	// column in the middle of a multi-byte code point
	_, err = vs.ByteOffsetInString([]byte("😢"), span.NewColumn[span.ZeroIndexed](2))
	if !errors.Is(err, &BadLocationErr{}) {
		t.Fatalf("expected BadLocationErr, got %#v", err)
	}
}

func TestByteOffsetInString_utf16(t *testing.T) {
	vs := SpanFromUTF16(zeroSpan(0, 0, 0, 0, "foo"))

	testCases := []struct {
		content        string
		col            uint32
		expectedOffset int
	}{
		{"Hello", 4, 4},
		// 😢 takes a surrogate pair (2 units) and 4 bytes
		{"😢a", 2, 4},
		{"😢a", 3, 5},
		{"ě", 1, 2},
	}

	for _, tc := range testCases {
		offset, err := vs.ByteOffsetInString([]byte(tc.content), span.NewColumn[span.ZeroIndexed](tc.col))
		if err != nil {
			t.Fatalf("%q col %d: unexpected error: %s", tc.content, tc.col, err)
		}
		if offset != tc.expectedOffset {
			t.Fatalf("%q col %d: expected offset %d, got %d",
				tc.content, tc.col, tc.expectedOffset, offset)
		}
	}
}

func TestByteOffsetInString_utf16SurrogateMiddle(t *testing.T) {
	vs := SpanFromUTF16(zeroSpan(0, 0, 0, 0, "foo"))

	// offset 1 points at the second unit of the surrogate pair
	_, err := vs.ByteOffsetInString([]byte("😢"), span.NewColumn[span.ZeroIndexed](1))
	if !errors.Is(err, &BadLocationErr{}) {
		t.Fatalf("expected BadLocationErr, got %#v", err)
	}
}

func TestChange_filePath(t *testing.T) {
	var c Change = AddFile{File: "foo", Text: "bar"}
	if c.FilePath() != "foo" {
		t.Fatalf("unexpected file path %q", c.FilePath())
	}

	c = ReplaceText{
		Span: SpanFromBytes(zeroSpan(0, 0, 1, 2, "bar")),
		Text: "x",
	}
	if c.FilePath() != "bar" {
		t.Fatalf("unexpected file path %q", c.FilePath())
	}
}
