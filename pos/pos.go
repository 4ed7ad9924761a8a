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

// Package pos implements the block/offset addressing scheme used throughout
// EB/EPWING dump data. Every piece of dump data refers to other data by a
// (block, offset) pair where a block is 2048 bytes long. Positions are
// linearized so they can be compared and used as map keys.
package pos

import (
	"fmt"
	"strings"
)

// BlockSize is the size in bytes of one block.
const BlockSize = 2048

// Position is a linearized block/offset address.
type Position int64

// New returns the Position for the given block and offset. An offset of
// exactly 0x0800 refers to the start of the following block and is
// renormalized to (block+1, 0).
func New(block, offset int64) Position {
	if offset == BlockSize {
		offset = 0
		block++
	}
	return Position(block*BlockSize + offset)
}

// Block returns the block number of the position.
func (p Position) Block() int64 {
	return int64(p) / BlockSize
}

// Offset returns the offset of the position within its block.
func (p Position) Offset() int64 {
	return int64(p) % BlockSize
}

// String renders the position as the fixed-width anchor key used in the
// generated hypertext: 8 hex digits of block followed by 4 hex digits of
// offset.
func (p Position) String() string {
	return fmt.Sprintf("%08X%04X", p.Block(), p.Offset())
}

// Ref renders the position in the bracketed form used by the dump data.
func (p Position) Ref() string {
	return fmt.Sprintf("[%08X:%04X]", p.Block(), p.Offset())
}

// CutRef parses a bracketed position reference "[<hexBlock>:<hexOffset>]" at
// the beginning of s and returns the position and the remainder of s. The
// offset field may contain leading spaces, which some dump tools emit for
// alignment. CutRef returns ok == false if s does not start with a
// well-formed reference.
func CutRef(s string) (Position, string, bool) {
	if len(s) == 0 || s[0] != '[' {
		return 0, s, false
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return 0, s, false
	}
	body := s[1:end]
	colon := strings.IndexByte(body, ':')
	if colon < 0 {
		return 0, s, false
	}
	block, ok := parseHex(body[:colon])
	if !ok {
		return 0, s, false
	}
	offset, ok := parseHex(strings.TrimLeft(body[colon+1:], " "))
	if !ok {
		return 0, s, false
	}
	return New(block, offset), s[end+1:], true
}

// parseHex parses a non-empty hexadecimal field. It is stricter than
// strconv.ParseInt in that it accepts no sign or prefix. Fields longer
// than 15 digits cannot fit an int64 without overflowing and are
// rejected; dump references use at most 8.
func parseHex(s string) (int64, bool) {
	if s == "" || len(s) > 15 {
		return 0, false
	}
	var v int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case '0' <= c && c <= '9':
			v = v<<4 | int64(c-'0')
		case 'a' <= c && c <= 'f':
			v = v<<4 | int64(c-'a'+10)
		case 'A' <= c && c <= 'F':
			v = v<<4 | int64(c-'A'+10)
		default:
			return 0, false
		}
	}
	return v, true
}
