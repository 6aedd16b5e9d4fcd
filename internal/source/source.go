// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package source maintains the derived line-offset index over a document
// buffer. The index is rebuilt whenever the buffer changes and is used to
// translate row/column addresses into byte offsets.
package source

import (
	"bytes"

	"github.com/hashicorp/hcl/v2"
)

type Line struct {
	// Bytes contains the line content inc. any trailing end-of-line marker
	Bytes []byte

	// Range is the byte range of the line inc. any trailing end-of-line
	// marker
	Range hcl.Range
}

func (l Line) Copy() Line {
	return Line{
		Bytes: l.Bytes,
		Range: l.Range,
	}
}

type Lines []Line

func (ls Lines) Copy() Lines {
	newLines := make(Lines, len(ls))
	for i, l := range ls {
		newLines[i] = l.Copy()
	}
	return newLines
}

// MakeSourceLines splits s into lines and records the byte range of each.
// The returned slice always contains one extra virtual line representing
// the position just past the final newline, so that positions at the very
// end of the buffer resolve to a valid line.
func MakeSourceLines(filename string, s []byte) Lines {
	var ret Lines

	lastRng := hcl.Range{
		Filename: filename,
		Start:    hcl.InitialPos,
		End:      hcl.InitialPos,
	}
	sc := hcl.NewRangeScanner(s, filename, scanLines)
	for sc.Scan() {
		ret = append(ret, Line{
			Bytes: sc.Bytes(),
			Range: sc.Range(),
		})
		lastRng = sc.Range()
	}

	// Account for the last (virtual) user-perceived line
	ret = append(ret, Line{
		Bytes: []byte{},
		Range: hcl.Range{
			Filename: lastRng.Filename,
			Start:    lastRng.End,
			End:      lastRng.End,
		},
	})

	return ret
}

// scanLines is a split function for a Scanner that returns each line of
// text (separated by \n), INCLUDING any trailing end-of-line marker.
// The last non-empty line of input will be returned even if it has no
// newline.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[0 : i+1], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func StringLines(lines Lines) []string {
	strLines := make([]string, len(lines))
	for i, l := range lines {
		strLines[i] = string(l.Bytes)
	}
	return strLines
}
