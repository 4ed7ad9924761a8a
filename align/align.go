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

// Package align merges the body dump with the search indexes into the
// dictionary compiler's input hypertext.
//
// The body dump and the sorted indexes are both ordered by body position,
// so a single forward pass suffices: each body line is checked against the
// head record of each index, lines hit by an index reference open a new
// definition term, and everything else accumulates as definition body
// text.
package align

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"ebd2html/index"
	"ebd2html/internal/folding"
	"ebd2html/markup"
)

// ErrNoIndex indicates that no index was given; without at least one index
// no entry can be generated.
var ErrNoIndex = errors.New("no index data")

// Indexes holds the per-class index cursors. Any of the three may be nil.
type Indexes struct {
	// Kana is the phonetic index.
	Kana *index.Cursor

	// Hyoki is the orthographic index.
	Hyoki *index.Cursor

	// Alpha is the alphabetic index. Alphabetic keys are emitted as
	// orthographic search keys.
	Alpha *index.Cursor
}

// Options are options for Run.
type Options struct {
	// AutoKana duplicates orthographic keys consisting only of kana as
	// phonetic keys, for dictionaries that ship no phonetic index of
	// their own.
	AutoKana bool

	// Generator is the generator name recorded in the document head.
	Generator string
}

// DefaultOptions is the default options for Run.
var DefaultOptions = &Options{
	Generator: "ebd2html",
}

// Stats reports which search key classes the generated document contains.
// The project descriptor generator uses them to enable the matching search
// methods.
type Stats struct {
	// Kana is true if phonetic keys were generated.
	Kana bool

	// Hyoki is true if orthographic or alphabetic keys were generated.
	Hyoki bool

	// AutoKana is true if any phonetic key was derived from an
	// orthographic one.
	AutoKana bool
}

// writer carries the alignment pass state.
type writer struct {
	w   io.Writer
	dec *markup.Decoder

	kana  *index.Cursor
	hyoki *index.Cursor
	alpha *index.Cursor

	autoKana bool

	// Head records of each index, nil once exhausted.
	kp *index.Record
	hp *index.Record
	ap *index.Record

	firstTerm  bool
	preamble   bool
	needBreak  bool
	newContent bool
	stats      Stats
}

// Run reads the body dump from honmon and writes the merged document to w.
// Body and heading text is decoded through dec. At least one index cursor
// must be set.
func Run(w io.Writer, honmon io.Reader, dec *markup.Decoder, idx Indexes, options *Options) (*Stats, error) {
	if options == nil {
		options = DefaultOptions
	}
	if idx.Kana == nil && idx.Hyoki == nil && idx.Alpha == nil {
		return nil, ErrNoIndex
	}

	aw := &writer{
		w:         w,
		dec:       dec,
		kana:      idx.Kana,
		hyoki:     idx.Hyoki,
		alpha:     idx.Alpha,
		autoKana:  options.AutoKana,
		firstTerm: true,
	}
	if aw.kana != nil {
		aw.stats.Kana = true
		aw.kp = aw.kana.Next()
	}
	if aw.hyoki != nil {
		aw.stats.Hyoki = true
		aw.hp = aw.hyoki.Next()
	}
	if aw.alpha != nil {
		aw.stats.Hyoki = true
		aw.ap = aw.alpha.Next()
	}

	generator := options.Generator
	if generator == "" {
		generator = DefaultOptions.Generator
	}
	fmt.Fprintf(w, `<html>
<head>
<meta http-equiv="Content-Type" content="text/html; charset=utf-8">
<meta name="GENERATOR" content="%s">
<title>Dictionary</title>
</head>
<body>
<dl>
`, generator)

	r := newBodyReader(honmon)
	for {
		line, err := r.read()
		if err != nil {
			return nil, err
		}
		if line == nil {
			break
		}
		if line.pos == 0 || line.text == "" {
			continue
		}
		if err := aw.line(line); err != nil {
			return nil, err
		}
	}

	fmt.Fprint(w, "\n</dl>\n</body>\n</html>\n")
	return &aw.stats, nil
}

// line processes one body line.
func (aw *writer) line(line *bodyLine) error {
	p := line.text

	// Content sentinels stand alone wherever they appear. The start
	// sentinel arms an anchor for the following line, since some
	// dictionaries reference the content rather than its first line.
	if p == "<1F02>" || p == "<1F03>" {
		if aw.needBreak {
			fmt.Fprint(aw.w, "<br />\n")
		}
		if p == "<1F02>" {
			fmt.Fprint(aw.w, "<X4081>1F02</X4081>\n")
			aw.newContent = true
		} else {
			fmt.Fprint(aw.w, "<X4081>1F03</X4081>\n")
		}
		aw.needBreak = false
		return nil
	}
	if aw.newContent {
		fmt.Fprintf(aw.w, "<a name=\"%s\"></a>\n", line.pos)
		aw.newContent = false
	}

	indented := false
	indent := 0
	istr := ""
	istr2 := ""

	if strings.HasPrefix(p, "<1F09>") {
		p, indent = markup.SkipIndent(p)
		indented = true
		istr = markup.Indent(indent)
	}

	var tbuf string
	var err error
	rest, rawTitle := markup.ExtractTitle(p)
	if rawTitle != "" || rest != p {
		p = rest
		if strings.HasPrefix(p, "<1F09>") {
			var indent2 int
			p, indent2 = markup.SkipIndent(p)
			istr2 = markup.Indent(indent2)
		}
		tbuf, err = aw.dec.Decode(rawTitle)
		if err != nil {
			return err
		}
	}
	buf, err := aw.dec.Decode(p)
	if err != nil {
		return err
	}
	title := tbuf
	if title == "" {
		title = buf
	}

	// Indexes pointing before the current line can never match a later
	// line; report and skip them.
	aw.kp = dropStale(aw.kana, aw.kp, line, "kana")
	aw.hp = dropStale(aw.hyoki, aw.hp, line, "hyoki")
	aw.ap = dropStale(aw.alpha, aw.ap, line, "alpha")

	hit := aw.kp != nil && comparePosition(aw.kp.BodyPos, line) == 0 ||
		aw.hp != nil && comparePosition(aw.hp.BodyPos, line) == 0 ||
		aw.ap != nil && comparePosition(aw.ap.BodyPos, line) == 0

	if !hit {
		if aw.needBreak {
			fmt.Fprint(aw.w, "<br />\n")
			aw.needBreak = false
		}
		if aw.firstTerm && !aw.preamble {
			// Content ahead of the first term.
			fmt.Fprint(aw.w, "<p>\n")
			aw.preamble = true
		}
		fmt.Fprintf(aw.w, "%s%s%s%s", istr, tbuf, istr2, buf)
		aw.needBreak = true
		return nil
	}

	if aw.preamble {
		fmt.Fprint(aw.w, "\n</p>\n")
		aw.preamble = false
	}

	// A reference into an indented line, or a heading too long for a
	// search key, does not open a new term; the reference lands inside
	// the current definition body and only starts a new paragraph.
	yieldTerm := !(indented && indent > 0 || len(title) > markup.MaxWord)
	if yieldTerm {
		if aw.firstTerm {
			aw.firstTerm = false
		} else {
			fmt.Fprint(aw.w, "\n</p></dd>\n")
		}
		fmt.Fprintf(aw.w, "<dt id=\"%s\">%s</dt>\n", line.pos, title)
	} else {
		fmt.Fprint(aw.w, "\n</p>\n<p>\n")
	}

	for aw.kp != nil && comparePosition(aw.kp.BodyPos, line) == 0 {
		aw.key(aw.kp, title, "kana")
		aw.kp = aw.kana.Next()
	}
	for aw.hp != nil && comparePosition(aw.hp.BodyPos, line) == 0 {
		aw.key(aw.hp, title, "hyoki")
		if aw.autoKana && folding.IsKana(aw.hp.Text) {
			aw.key(aw.hp, title, "kana")
			aw.stats.AutoKana = true
		}
		aw.hp = aw.hyoki.Next()
	}
	for aw.ap != nil && comparePosition(aw.ap.BodyPos, line) == 0 {
		aw.key(aw.ap, title, "hyoki")
		aw.ap = aw.alpha.Next()
	}

	if yieldTerm {
		fmt.Fprint(aw.w, "<dd><p>\n")
		if tbuf == "" && buf == "" {
			fmt.Fprintf(aw.w, "%s%s", istr2, buf)
		} else {
			fmt.Fprint(aw.w, " ")
		}
	} else {
		fmt.Fprintf(aw.w, "%s%s%s%s", istr, tbuf, istr2, buf)
	}
	aw.needBreak = true
	return nil
}

// key emits one search key. A record without its own heading borrows the
// body line's.
func (aw *writer) key(rec *index.Record, lineTitle, class string) {
	title := rec.Title
	if title == "" {
		title = lineTitle
	}
	fmt.Fprintf(aw.w, "<key title=\"%s\" type=\"%s\">%s</key>\n", title, class, rec.Text)
}

// dropStale advances past index records referencing positions before the
// current body line.
func dropStale(c *index.Cursor, rec *index.Record, line *bodyLine, class string) *index.Record {
	for rec != nil && comparePosition(rec.BodyPos, line) < 0 {
		logrus.Warnf("unused %s index: body=%s index=%s %s",
			class, line.pos.Ref(), rec.BodyPos.Ref(), rec.Text)
		rec = c.Next()
	}
	return rec
}
