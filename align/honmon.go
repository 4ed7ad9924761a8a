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

package align

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"ebd2html/pos"
)

var bodyLineRegex = regexp.MustCompile(`^\[([0-9a-fA-F]+): *([0-9a-fA-F]+)\](.*)$`)

// bodyLine is one line of the body dump.
type bodyLine struct {
	pos  pos.Position
	text string
}

// bodyReader reads body dump lines. Lines without a position prefix come
// back as zero-position lines, which the alignment loop skips.
type bodyReader struct {
	s *bufio.Scanner
}

func newBodyReader(r io.Reader) *bodyReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &bodyReader{s: s}
}

// read returns the next line, or nil at the end of the dump.
func (r *bodyReader) read() (*bodyLine, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return nil, fmt.Errorf("reading body dump: %w", err)
		}
		return nil, nil
	}
	m := bodyLineRegex.FindStringSubmatch(r.s.Text())
	if m == nil {
		return &bodyLine{}, nil
	}
	block, _ := strconv.ParseInt(m[1], 16, 64)
	offset, _ := strconv.ParseInt(m[2], 16, 64)
	return &bodyLine{
		pos:  pos.New(block, offset),
		text: m[3],
	}, nil
}

// comparePosition compares an index record's body reference against a body
// line. It returns -1 when the reference lies before the line, 0 when it
// hits the line, and 1 when it lies beyond it.
//
// Some dictionaries point their index a few bytes past the line start,
// behind a run of indent and search key tags. A reference immediately
// after such a run still counts as a hit on the line.
func comparePosition(ref pos.Position, line *bodyLine) int {
	p := line.pos
	if ref < p {
		return -1
	}
	text := line.text
	for len(text) > 0 && ref > p {
		switch {
		case strings.HasPrefix(text, "<1F09>"), strings.HasPrefix(text, "<1F41>"):
			text = text[12:]
			p += 4
		case strings.HasPrefix(text, "<1F61>"):
			text = text[6:]
			p += 2
		default:
			return 1
		}
	}
	if ref > p {
		return 1
	}
	return 0
}
