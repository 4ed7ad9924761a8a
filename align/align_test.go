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

const docHead = `<html>
<head>
<meta http-equiv="Content-Type" content="text/html; charset=utf-8">
<meta name="GENERATOR" content="test">
<title>Dictionary</title>
</head>
<body>
<dl>
`

func run(t *testing.T, honmon string, idx Indexes, options *Options) (string, *Stats) {
	t.Helper()
	var b strings.Builder
	dec := markup.NewDecoder(emptyResolver{}, nil)
	stats, err := Run(&b, strings.NewReader(honmon), dec, idx, options)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return b.String(), stats
}

func TestRun(t *testing.T) {
	t.Parallel()

	honmon := strings.Join([]string{
		"[00000002:0000]<1F02>",
		"[00000002:0010]<1F41><0001>みだし<1F61>本文<1F0A>",
		"[00000002:0030]つづき<1F0A>",
		"[00000002:0050]<1F03>",
	}, "\n")

	entries := []index.Entry{
		{BodyPos: pos.New(2, 0x10), TitlePos: pos.New(2, 0x10), Text: "みだし"},
	}
	got, stats := run(t, honmon, Indexes{
		Kana: index.NewCursor(entries, index.Titles{}),
	}, &Options{Generator: "test"})

	expected := docHead + strings.Join([]string{
		"<X4081>1F02</X4081>",
		`<a name="000000020010"></a>`,
		`<dt id="000000020010">みだし</dt>`,
		`<key title="みだし" type="kana">みだし</key>`,
		"<dd><p>",
		" <br />",
		"つづき<br />",
		"<X4081>1F03</X4081>",
		"",
		"</dl>",
		"</body>",
		"</html>",
		"",
	}, "\n")
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Run (-want, +got):\n%s", diff)
	}
	if !stats.Kana || stats.Hyoki || stats.AutoKana {
		t.Errorf("stats: got %+v", stats)
	}
}

// TestRun_preambleAndAutoKana tests that content ahead of the first term
// wraps in a paragraph and that pure-kana orthographic keys are duplicated
// as phonetic keys.
func TestRun_preambleAndAutoKana(t *testing.T) {
	t.Parallel()

	honmon := strings.Join([]string{
		"[00000001:0000]序文<1F0A>",
		"[00000001:0010]<1F41><0001>かな<1F61>たいやき<1F0A>",
	}, "\n")

	entries := []index.Entry{
		{BodyPos: pos.New(1, 0x10), TitlePos: pos.New(1, 0x10), Text: "かな"},
	}
	got, stats := run(t, honmon, Indexes{
		Hyoki: index.NewCursor(entries, index.Titles{}),
	}, &Options{AutoKana: true, Generator: "test"})

	expected := docHead + strings.Join([]string{
		"<p>",
		"序文",
		"</p>",
		`<dt id="000000010010">かな</dt>`,
		`<key title="かな" type="hyoki">かな</key>`,
		`<key title="かな" type="kana">かな</key>`,
		"<dd><p>",
		" ",
		"</dl>",
		"</body>",
		"</html>",
		"",
	}, "\n")
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Run (-want, +got):\n%s", diff)
	}
	if stats.Kana || !stats.Hyoki || !stats.AutoKana {
		t.Errorf("stats: got %+v", stats)
	}
}

// TestRun_indentedReference tests that a reference behind an indent tag
// lands inside the current definition as a new paragraph instead of
// opening a new term.
func TestRun_indentedReference(t *testing.T) {
	t.Parallel()

	honmon := strings.Join([]string{
		"[00000003:0000]<1F41><0001>おや<1F61>ほんぶん<1F0A>",
		"[00000003:0020]<1F09><0002>こども<1F0A>",
	}, "\n")

	entries := []index.Entry{
		{BodyPos: pos.New(3, 0), TitlePos: pos.New(3, 0), Text: "おや"},
		// The second reference points just past the indent tag.
		{BodyPos: pos.New(3, 0x20) + 4, TitlePos: pos.New(3, 0x20) + 4, Text: "こ"},
	}
	got, _ := run(t, honmon, Indexes{
		Kana: index.NewCursor(entries, index.Titles{}),
	}, &Options{Generator: "test"})

	expected := docHead + strings.Join([]string{
		`<dt id="000000030000">おや</dt>`,
		`<key title="おや" type="kana">おや</key>`,
		"<dd><p>",
		" ",
		"</p>",
		"<p>",
		`<key title="こども" type="kana">こ</key>`,
		"<X4081>1F09 0002</X4081>こども",
		"</dl>",
		"</body>",
		"</html>",
		"",
	}, "\n")
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Run (-want, +got):\n%s", diff)
	}
}

// TestRun_staleIndex tests that records pointing before any body line are
// skipped without derailing the pass.
func TestRun_staleIndex(t *testing.T) {
	t.Parallel()

	honmon := "[00000002:0000]<1F41><0001>みだし<1F61>本文<1F0A>"
	entries := []index.Entry{
		{BodyPos: pos.New(1, 0), TitlePos: pos.New(1, 0), Text: "ふるい"},
		{BodyPos: pos.New(2, 0), TitlePos: pos.New(2, 0), Text: "みだし"},
	}
	got, _ := run(t, honmon, Indexes{
		Kana: index.NewCursor(entries, index.Titles{}),
	}, &Options{Generator: "test"})

	if strings.Contains(got, "ふるい") {
		t.Errorf("stale record leaked into output:\n%s", got)
	}
	if !strings.Contains(got, `<dt id="000000020000">みだし</dt>`) {
		t.Errorf("live record missing from output:\n%s", got)
	}
}

func TestRun_noIndex(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	dec := markup.NewDecoder(emptyResolver{}, nil)
	_, err := Run(&b, strings.NewReader(""), dec, Indexes{}, nil)
	if !errors.Is(err, ErrNoIndex) {
		t.Fatalf("Run: got %v, want ErrNoIndex", err)
	}
	if b.Len() != 0 {
		t.Errorf("Run wrote output before failing:\n%s", b.String())
	}
}

func TestComparePosition(t *testing.T) {
	t.Parallel()

	line := &bodyLine{
		pos:  pos.New(3, 0x20),
		text: "<1F09><0002><1F41><0001><1F61>ほんぶん",
	}

	tests := []struct {
		name     string
		ref      pos.Position
		expected int
	}{
		{"before the line", pos.New(3, 0x10), -1},
		{"line start", pos.New(3, 0x20), 0},
		{"behind the indent tag", pos.New(3, 0x24), 0},
		{"behind indent and key tags", pos.New(3, 0x2a), 0},
		{"inside the text", pos.New(3, 0x30), 1},
		{"past the line", pos.New(4, 0), 1},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := comparePosition(tc.ref, line); got != tc.expected {
				t.Errorf("comparePosition: got %d, want %d", got, tc.expected)
			}
		})
	}
}
