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

// Package index reads dumped search index and heading data.
//
// A dictionary carries up to three indexes (phonetic kana, orthographic
// hyoki, alphabetic) with a heading dump alongside each. Index records
// associate a search term with a body position and a heading position;
// the heading dump maps heading positions to heading text. The two are
// merged by a Cursor, which walks the records in body order the way the
// body-alignment pass consumes them.
package index

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"ebd2html/markup"
	"ebd2html/pos"
)

// ErrNoHeader indicates an index dump without an index kind declaration.
var ErrNoHeader = errors.New("index dump has no ID header")

var (
	indexRecordRegex = regexp.MustCompile(
		`\[(\d+)\]\t\[([0-9a-fA-F]+):([0-9a-fA-F]+)\]\[([0-9a-fA-F]+):([0-9a-fA-F]+)\]`)
	titleRecordRegex = regexp.MustCompile(
		`\[([0-9a-fA-F]+):( *[0-9a-fA-F]+)\]`)
)

// Entry is one index record: a decoded search term with the body position
// it refers to and the position of its heading.
type Entry struct {
	// BodyPos is the referenced body position.
	BodyPos pos.Position

	// TitlePos is the position of the entry's heading. An entry whose
	// heading line is the referenced body line itself has TitlePos equal
	// to BodyPos.
	TitlePos pos.Position

	// Text is the decoded search term.
	Text string
}

// Titles maps heading positions to decoded heading text.
type Titles map[pos.Position]string

// ParseIndex reads an index dump. The dump declares its kind in an ID
// header line: ID=C0 marks a plain index and ID=D0 a combined index whose
// records carry a source prefix. Combined records keep their payload after
// a C0: or 00: prefix.
//
// Record text is decoded through d. Records with empty lexical text are
// dropped; otherwise malformed records are logged and skipped. The result
// is sorted by (BodyPos, TitlePos, Text), the order the body-alignment
// pass consumes.
func ParseIndex(r io.Reader, d *markup.Decoder) ([]Entry, error) {
	s := bufio.NewScanner(r)

	combined := false
	found := false
	for s.Scan() {
		line := s.Text()
		if !strings.HasPrefix(line, "ID=") {
			continue
		}
		if strings.HasPrefix(line[3:], "C0") {
			found = true
			break
		}
		if strings.HasPrefix(line[3:], "D0") {
			combined = true
			found = true
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading index dump: %w", err)
	}
	if !found {
		return nil, ErrNoHeader
	}

	var entries []Entry
	for s.Scan() {
		line := s.Text()
		if line == "" || strings.HasPrefix(line, "block#") || strings.HasPrefix(line, "ID=") {
			continue
		}
		if combined {
			if strings.HasPrefix(line, "C0:") || strings.HasPrefix(line, "00:") {
				line = line[3:]
			}
			if line == "" {
				logrus.Warnf("malformed index record: bare record prefix")
				continue
			}
		}
		if line[0] == '[' {
			// Empty lexical text, seen at the tail of at least one
			// dictionary's orthographic index. Dropped.
			continue
		}

		m := indexRecordRegex.FindStringSubmatch(line)
		if m == nil {
			logrus.Warnf("malformed index record: %s", line)
			continue
		}
		bodyBlock, _ := strconv.ParseInt(m[2], 16, 64)
		bodyOffset, _ := strconv.ParseInt(m[3], 16, 64)
		titleBlock, _ := strconv.ParseInt(m[4], 16, 64)
		titleOffset, _ := strconv.ParseInt(m[5], 16, 64)

		text, err := d.DecodeTitle(line[:strings.IndexByte(line, '[')])
		if err != nil {
			return nil, fmt.Errorf("decoding index record %q: %w", line, err)
		}
		entries = append(entries, Entry{
			BodyPos:  pos.New(bodyBlock, bodyOffset),
			TitlePos: pos.New(titleBlock, titleOffset),
			Text:     text,
		})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading index dump: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].BodyPos != entries[j].BodyPos {
			return entries[i].BodyPos < entries[j].BodyPos
		}
		if entries[i].TitlePos != entries[j].TitlePos {
			return entries[i].TitlePos < entries[j].TitlePos
		}
		return entries[i].Text < entries[j].Text
	})
	return entries, nil
}

// ParseTitles reads a heading dump into a position-to-text map. Heading
// records are a bracketed position followed by heading text. Records whose
// text is empty or a bare content sentinel are dropped, and a trailing
// line break tag is stripped. Malformed records are logged and skipped.
func ParseTitles(r io.Reader, d *markup.Decoder) (Titles, error) {
	titles := Titles{}

	s := bufio.NewScanner(r)
	for s.Scan() {
		line := s.Text()
		if line == "" || strings.HasPrefix(line, "[ID=") {
			continue
		}
		m := titleRecordRegex.FindStringSubmatch(line)
		if m == nil {
			logrus.Warnf("malformed heading record: %s", line)
			continue
		}
		block, _ := strconv.ParseInt(m[1], 16, 64)
		offset, _ := strconv.ParseInt(strings.TrimSpace(m[2]), 16, 64)

		line = line[strings.IndexByte(line, ']')+1:]
		if line == "" || strings.HasPrefix(line, "<1F02>") || strings.HasPrefix(line, "<1F03>") {
			continue
		}
		line = strings.TrimSuffix(line, "<1F0A>")

		text, err := d.DecodeTitle(line)
		if err != nil {
			return nil, fmt.Errorf("decoding heading record %q: %w", line, err)
		}
		titles[pos.New(block, offset)] = text
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading heading dump: %w", err)
	}
	return titles, nil
}

// Record is an index entry with its heading resolved.
type Record struct {
	Entry

	// Title is the entry's heading text. Empty when the heading line is
	// the referenced body line itself, or when the heading dump has no
	// record for the heading position.
	Title string
}

// Cursor walks index entries in stored order, resolving each entry's
// heading as it goes.
type Cursor struct {
	entries []Entry
	titles  Titles
	next    int
}

// NewCursor returns a Cursor over entries with headings resolved from
// titles.
func NewCursor(entries []Entry, titles Titles) *Cursor {
	return &Cursor{
		entries: entries,
		titles:  titles,
	}
}

// Next returns the next record, or nil when the index is exhausted.
func (c *Cursor) Next() *Record {
	if c.next >= len(c.entries) {
		return nil
	}
	e := c.entries[c.next]
	c.next++

	r := &Record{Entry: e}
	if e.TitlePos != e.BodyPos {
		// A missing heading record resolves to an empty title; the
		// alignment pass substitutes the body line's own heading.
		r.Title = c.titles[e.TitlePos]
	}
	return r
}
