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

package index_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ebd2html/index"
	"ebd2html/markup"
	"ebd2html/pos"
)

type emptyResolver struct{}

func (emptyResolver) Resolve(code uint16, halfwidth bool) (rune, bool) {
	return 0, false
}

func decoder() *markup.Decoder {
	return markup.NewDecoder(emptyResolver{}, nil)
}

func TestParseIndex(t *testing.T) {
	t.Parallel()

	dump := strings.Join([]string{
		"block#1",
		"ID=C0 kana index",
		"",
		"block#2",
		"あい[2]\t[00000010:0020][00000200:0040]",
		"うえ[2]\t[00000008:0800][00000100:0010]",
		"<1F04>ＡＢ<1F05>[2]\t[00000010:0020][00000200:0080]",
		"[0]\t[00000010:0020][00000200:0100]",
		"こわれた行",
	}, "\n")

	got, err := index.ParseIndex(strings.NewReader(dump), decoder())
	if err != nil {
		t.Fatalf("ParseIndex: %v", err)
	}

	// Records come back sorted by body position; the 0x0800 offset
	// renormalizes onto the next block boundary. The empty-text record and
	// the malformed line are dropped.
	expected := []index.Entry{
		{
			BodyPos:  pos.New(9, 0),
			TitlePos: pos.New(0x100, 0x10),
			Text:     "うえ",
		},
		{
			BodyPos:  pos.New(0x10, 0x20),
			TitlePos: pos.New(0x200, 0x40),
			Text:     "あい",
		},
		{
			BodyPos:  pos.New(0x10, 0x20),
			TitlePos: pos.New(0x200, 0x80),
			Text:     "AB",
		},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("ParseIndex (-want, +got):\n%s", diff)
	}
}

func TestParseIndex_combined(t *testing.T) {
	t.Parallel()

	dump := strings.Join([]string{
		"ID=D0 combined index",
		"C0:あい[2]\t[00000010:0020][00000200:0040]",
		"00:うえ[2]\t[00000011:0020][00000200:0060]",
		// Bare record prefixes show up in truncated dumps; they are
		// skipped like any other malformed record.
		"C0:",
		"00:",
		// An 80: record passes through with its prefix intact. Upstream
		// dumps show a dead code path that looks like it meant to drop
		// these; the observed behavior keeps them.
		"80:かき[2]\t[00000012:0020][00000200:0080]",
	}, "\n")

	got, err := index.ParseIndex(strings.NewReader(dump), decoder())
	if err != nil {
		t.Fatalf("ParseIndex: %v", err)
	}

	expected := []index.Entry{
		{BodyPos: pos.New(0x10, 0x20), TitlePos: pos.New(0x200, 0x40), Text: "あい"},
		{BodyPos: pos.New(0x11, 0x20), TitlePos: pos.New(0x200, 0x60), Text: "うえ"},
		{BodyPos: pos.New(0x12, 0x20), TitlePos: pos.New(0x200, 0x80), Text: "80:かき"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("ParseIndex (-want, +got):\n%s", diff)
	}
}

func TestParseIndex_noHeader(t *testing.T) {
	t.Parallel()

	_, err := index.ParseIndex(strings.NewReader("あい[2]\t[00000010:0020][00000200:0040]\n"), decoder())
	if !errors.Is(err, index.ErrNoHeader) {
		t.Errorf("ParseIndex: got %v, want ErrNoHeader", err)
	}

	// ID headers of other kinds never terminate the scan.
	_, err = index.ParseIndex(strings.NewReader("ID=A0 something else\n"), decoder())
	if !errors.Is(err, index.ErrNoHeader) {
		t.Errorf("ParseIndex: got %v, want ErrNoHeader", err)
	}
}

func TestParseTitles(t *testing.T) {
	t.Parallel()

	dump := strings.Join([]string{
		"[ID=90]",
		"[00000200:  40]みだし<1F0A>",
		"[00000200:0060]<1F02>",
		"[00000200:0080]",
		"[00000200:00A0]<1F04>ＡＢＣ<1F05>",
		"broken line",
		"",
	}, "\n")

	got, err := index.ParseTitles(strings.NewReader(dump), decoder())
	if err != nil {
		t.Fatalf("ParseTitles: %v", err)
	}

	expected := index.Titles{
		pos.New(0x200, 0x40): "みだし",
		pos.New(0x200, 0xa0): "ABC",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("ParseTitles (-want, +got):\n%s", diff)
	}
}

func TestCursor(t *testing.T) {
	t.Parallel()

	entries := []index.Entry{
		{BodyPos: pos.New(1, 0x10), TitlePos: pos.New(0x200, 0x40), Text: "あい"},
		{BodyPos: pos.New(2, 0x20), TitlePos: pos.New(2, 0x20), Text: "うえ"},
		{BodyPos: pos.New(3, 0x30), TitlePos: pos.New(0x200, 0x60), Text: "おか"},
	}
	titles := index.Titles{
		pos.New(0x200, 0x40): "見出し一",
	}

	c := index.NewCursor(entries, titles)

	r := c.Next()
	if r == nil || r.Title != "見出し一" || r.Text != "あい" {
		t.Fatalf("first record: got %+v", r)
	}

	// A heading position equal to the body position means the body line
	// itself carries the heading.
	r = c.Next()
	if r == nil || r.Title != "" {
		t.Fatalf("second record: got %+v", r)
	}

	// A heading missing from the dump resolves to an empty title.
	r = c.Next()
	if r == nil || r.Title != "" {
		t.Fatalf("third record: got %+v", r)
	}

	if r = c.Next(); r != nil {
		t.Fatalf("exhausted cursor: got %+v", r)
	}
}
