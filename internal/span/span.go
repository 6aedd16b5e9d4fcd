// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package span describes locations within a document in row/column terms,
// tagged with an explicit indexing convention.
//
// Rows and columns are either zero-indexed (as delivered by editor
// protocols) or one-indexed (as printed for humans). The convention is part
// of the type, so mixing the two does not compile and every conversion is
// an explicit, exact arithmetic transform.
//
// Columns carry no encoding on their own. Whether a column counts bytes
// or UTF-16 code units is decided by the producer of the enclosing span,
// see the document package.
package span

import "fmt"

// ZeroIndexed marks rows and columns counted from 0.
type ZeroIndexed struct{}

// OneIndexed marks rows and columns counted from 1.
type OneIndexed struct{}

// Indexed constrains location types to one of the two conventions.
type Indexed interface {
	ZeroIndexed | OneIndexed
}

func oneIndexed[I Indexed]() bool {
	_, ok := any(*new(I)).(OneIndexed)
	return ok
}

// Row is a line number within a document.
type Row[I Indexed] struct {
	n uint32
}

func NewRow[I Indexed](n uint32) Row[I] {
	return Row[I]{n}
}

func (r Row[I]) Value() uint32 {
	return r.n
}

func (r Row[I]) String() string {
	return fmt.Sprintf("%d", r.n)
}

// OneIndexed converts a zero-indexed row to its one-indexed equivalent.
// Calling it on a row which is already one-indexed is a programming error.
func (r Row[I]) OneIndexed() Row[OneIndexed] {
	if oneIndexed[I]() {
		panic("span: row is already one-indexed")
	}
	return Row[OneIndexed]{r.n + 1}
}

// ZeroIndexed converts a one-indexed row to its zero-indexed equivalent.
// It panics on row 0, which is not representable as one-indexed, and when
// called on a row which is already zero-indexed.
func (r Row[I]) ZeroIndexed() Row[ZeroIndexed] {
	if !oneIndexed[I]() {
		panic("span: row is already zero-indexed")
	}
	if r.n == 0 {
		panic("span: one-indexed row 0 underflows")
	}
	return Row[ZeroIndexed]{r.n - 1}
}

// Column is an offset within a line. The unit (bytes or UTF-16 code units)
// is determined by the producer of the enclosing span.
type Column[I Indexed] struct {
	n uint32
}

func NewColumn[I Indexed](n uint32) Column[I] {
	return Column[I]{n}
}

func (c Column[I]) Value() uint32 {
	return c.n
}

func (c Column[I]) String() string {
	return fmt.Sprintf("%d", c.n)
}

func (c Column[I]) OneIndexed() Column[OneIndexed] {
	if oneIndexed[I]() {
		panic("span: column is already one-indexed")
	}
	return Column[OneIndexed]{c.n + 1}
}

func (c Column[I]) ZeroIndexed() Column[ZeroIndexed] {
	if !oneIndexed[I]() {
		panic("span: column is already zero-indexed")
	}
	if c.n == 0 {
		panic("span: one-indexed column 0 underflows")
	}
	return Column[ZeroIndexed]{c.n - 1}
}

// Position is a row/column pair within a document.
type Position[I Indexed] struct {
	Row Row[I]
	Col Column[I]
}

func NewPosition[I Indexed](row Row[I], col Column[I]) Position[I] {
	return Position[I]{Row: row, Col: col}
}

func (p Position[I]) String() string {
	return fmt.Sprintf("%s:%s", p.Row, p.Col)
}

func (p Position[I]) OneIndexed() Position[OneIndexed] {
	return Position[OneIndexed]{Row: p.Row.OneIndexed(), Col: p.Col.OneIndexed()}
}

func (p Position[I]) ZeroIndexed() Position[ZeroIndexed] {
	return Position[ZeroIndexed]{Row: p.Row.ZeroIndexed(), Col: p.Col.ZeroIndexed()}
}

// Range is a pair of positions within a document. The end position is
// exclusive.
type Range[I Indexed] struct {
	RowStart Row[I]
	RowEnd   Row[I]
	ColStart Column[I]
	ColEnd   Column[I]
}

func NewRange[I Indexed](rowStart, rowEnd Row[I], colStart, colEnd Column[I]) Range[I] {
	return Range[I]{
		RowStart: rowStart,
		RowEnd:   rowEnd,
		ColStart: colStart,
		ColEnd:   colEnd,
	}
}

func RangeFromPositions[I Indexed](start, end Position[I]) Range[I] {
	return Range[I]{
		RowStart: start.Row,
		RowEnd:   end.Row,
		ColStart: start.Col,
		ColEnd:   end.Col,
	}
}

func (r Range[I]) Start() Position[I] {
	return Position[I]{Row: r.RowStart, Col: r.ColStart}
}

func (r Range[I]) End() Position[I] {
	return Position[I]{Row: r.RowEnd, Col: r.ColEnd}
}

func (r Range[I]) OneIndexed() Range[OneIndexed] {
	return Range[OneIndexed]{
		RowStart: r.RowStart.OneIndexed(),
		RowEnd:   r.RowEnd.OneIndexed(),
		ColStart: r.ColStart.OneIndexed(),
		ColEnd:   r.ColEnd.OneIndexed(),
	}
}

func (r Range[I]) ZeroIndexed() Range[ZeroIndexed] {
	return Range[ZeroIndexed]{
		RowStart: r.RowStart.ZeroIndexed(),
		RowEnd:   r.RowEnd.ZeroIndexed(),
		ColStart: r.ColStart.ZeroIndexed(),
		ColEnd:   r.ColEnd.ZeroIndexed(),
	}
}

// Span is a range within a named document.
type Span[I Indexed] struct {
	File  string
	Range Range[I]
}

func NewSpan[I Indexed](rowStart, rowEnd Row[I], colStart, colEnd Column[I], file string) Span[I] {
	return Span[I]{
		File:  file,
		Range: NewRange(rowStart, rowEnd, colStart, colEnd),
	}
}

func SpanFromRange[I Indexed](rng Range[I], file string) Span[I] {
	return Span[I]{File: file, Range: rng}
}

func SpanFromPositions[I Indexed](start, end Position[I], file string) Span[I] {
	return Span[I]{File: file, Range: RangeFromPositions(start, end)}
}

func (s Span[I]) OneIndexed() Span[OneIndexed] {
	return Span[OneIndexed]{File: s.File, Range: s.Range.OneIndexed()}
}

func (s Span[I]) ZeroIndexed() Span[ZeroIndexed] {
	return Span[ZeroIndexed]{File: s.File, Range: s.Range.ZeroIndexed()}
}
