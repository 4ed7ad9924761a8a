// Copyright 2025 The ebd2html Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gaiji implements the private glyph (gaiji) table of a dictionary.
//
// EB/EPWING dictionaries define private characters as per-dictionary bitmaps
// in two classes: half width (8x16) and full width (16x16). Each glyph is
// addressed by a 16-bit code whose row byte starts at 0xA1. The table assigns
// each glyph a Unicode private use area code point, starting at U+E000,
// numbering the half-width class first and continuing the same counter for
// the full-width class so the two classes never collide. An external override
// map may pin specific glyph codes to specific code points; pinned codes are
// never reassigned.
package gaiji

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// FirstCodePoint is the first private use area code point handed out.
const FirstCodePoint = 0xE000

var fontSetStartRegex = regexp.MustCompile(`^<fontSet\s.*start="([0-9A-Fa-f]{2})([0-9A-Fa-f]{2})"`)

// Table is a bidirectional mapping between glyph codes and code points for
// both glyph classes, plus the font bitmap data needed to reproduce the font
// document.
type Table struct {
	half map[uint16]rune
	full map[uint16]rune

	halfLines []string
	fullLines []string
}

// New returns a new empty Table.
func New() *Table {
	return &Table{
		half: map[uint16]rune{},
		full: map[uint16]rune{},
	}
}

// ReadOverrides reads an external glyph override map (EBWin .map format) into
// the table. Records are whitespace-separated <typeCode><hexGlyph>
// <unicodeField> lines. Lines whose second field is "-" or holds multiple
// values, and mappings to U+0020, are ignored. A type code of 'z' selects the
// full-width class; any other type code selects the half-width class.
func (t *Table) ReadOverrides(r io.Reader) error {
	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[1] == "-" || strings.Contains(fields[1], ",") {
			continue
		}
		ebfield := strings.ToLower(fields[0])
		if len(ebfield) < 2 || len(fields[1]) < 2 {
			continue
		}
		code, err := strconv.ParseUint(ebfield[1:], 16, 16)
		if err != nil {
			continue
		}
		cp, err := strconv.ParseUint(fields[1][1:], 16, 32)
		if err != nil || cp == 0x20 {
			continue
		}
		if ebfield[0] == 'z' {
			t.full[uint16(code)] = rune(cp)
		} else {
			t.half[uint16(code)] = rune(cp)
		}
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("reading override map: %w", err)
	}
	return nil
}

// Load reads the half-width and full-width glyph bitmap dumps and assigns
// code points to every glyph not already pinned by an override.
func (t *Table) Load(halfDump, fullDump io.Reader) error {
	next := rune(FirstCodePoint)

	lastRow, err := t.loadClass(halfDump, t.half, &t.halfLines, "8X16", 0xa1, &next)
	if err != nil {
		return fmt.Errorf("half-width dump: %w", err)
	}

	// The full-width dump usually declares its own start code. Failing that
	// it continues on the row following the half-width class.
	_, err = t.loadClass(fullDump, t.full, &t.fullLines, "16X16", lastRow+1, &next)
	if err != nil {
		return fmt.Errorf("full-width dump: %w", err)
	}
	return nil
}

// loadClass reads one bitmap dump. A <fontSet start="RRCC"> line declares the
// glyph code of the next bitmap record; each <fontData record consumes the
// running code and increments it, column first, wrapping from 0x7E back to
// 0x21 on the next row. All other lines are bitmap payload and comments and
// are carried through to the font document verbatim.
func (t *Table) loadClass(r io.Reader, m map[uint16]rune, lines *[]string, size string, startRow uint16, next *rune) (uint16, error) {
	row := startRow
	col := uint16(0x21)
	first := true

	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if line == "" || line[0] == ' ' || line[0] == '#' || line[0] == '.' {
			*lines = append(*lines, line)
			continue
		}
		if g := fontSetStartRegex.FindStringSubmatch(line); g != nil {
			r64, _ := strconv.ParseUint(g[1], 16, 16)
			c64, _ := strconv.ParseUint(g[2], 16, 16)
			row = uint16(r64)
			col = uint16(c64)
		}
		if !strings.HasPrefix(line, "<fontData") {
			continue
		}

		code := row<<8 | col
		if first {
			*lines = append(*lines, fmt.Sprintf(`<fontSet size="%s" start="%04X">`, size, code))
			first = false
		} else {
			*lines = append(*lines, "</fontData>")
		}
		if _, ok := m[code]; !ok {
			m[code] = *next
			*next++
		}
		*lines = append(*lines, fmt.Sprintf(`<fontData ebcode="%04X" unicode="#x%04X">`, code, m[code]))

		if col < 0x7e {
			col++
		} else {
			col = 0x21
			row++
		}
	}
	if err := s.Err(); err != nil {
		return row, fmt.Errorf("reading glyph dump: %w", err)
	}
	if !first {
		*lines = append(*lines, "</fontData>", "</fontSet>")
	}
	return row, nil
}

// Resolve returns the code point assigned to the given glyph code, selecting
// the class by halfwidth. The second return value is false if the glyph has
// neither a definition nor an override; such a glyph cannot be rendered and
// callers must treat this as a fatal decode error.
func (t *Table) Resolve(code uint16, halfwidth bool) (rune, bool) {
	m := t.full
	if halfwidth {
		m = t.half
	}
	cp, ok := m[code]
	return cp, ok
}

// WriteFont writes the font bitmap document, both classes in source
// iteration order.
func (t *Table) WriteFont(w io.Writer) error {
	b := bufio.NewWriter(w)
	fmt.Fprintln(b, `<?xml version="1.0" encoding="Shift_JIS"?>`)
	fmt.Fprintln(b, `<gaijiData xml:space="preserve">`)
	for _, line := range t.halfLines {
		fmt.Fprintln(b, line)
	}
	for _, line := range t.fullLines {
		fmt.Fprintln(b, line)
	}
	fmt.Fprintln(b, "</gaijiData>")
	if err := b.Flush(); err != nil {
		return fmt.Errorf("writing font document: %w", err)
	}
	return nil
}

// WriteMap writes the glyph map document listing (codePoint, glyphCode)
// associations sorted by glyph code within each class, half width first.
func (t *Table) WriteMap(w io.Writer) error {
	b := bufio.NewWriter(w)
	fmt.Fprintln(b, `<?xml version="1.0" encoding="Shift_JIS"?>`)
	fmt.Fprintln(b, "<gaijiSet>")
	for _, m := range []map[uint16]rune{t.half, t.full} {
		codes := make([]uint16, 0, len(m))
		for code := range m {
			codes = append(codes, code)
		}
		sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
		for _, code := range codes {
			fmt.Fprintf(b, "<gaijiMap unicode=\"#x%04X\" ebcode=\"%04X\"/>\n", m[code], code)
		}
	}
	fmt.Fprintln(b, "</gaijiSet>")
	if err := b.Flush(); err != nil {
		return fmt.Errorf("writing map document: %w", err)
	}
	return nil
}
