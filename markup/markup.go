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

// Package markup decodes the escape-tag stream of dumped body and heading
// text into hypertext.
//
// A tag is a six character token <XXXX> holding four hex digits. Tags whose
// first digit is a letter are private glyph (gaiji) references resolved
// through the glyph table; all other tags are control tags. Literal text
// between tags passes through unchanged except in halfwidth mode, where
// full-width alphanumerics and symbols fold to ASCII and the five
// hypertext-unsafe characters are escaped.
package markup

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"ebd2html/internal/folding"
	"ebd2html/pos"
)

// MaxWord is the longest heading, in bytes, accepted as an entry title.
const MaxWord = 256

// DefaultMaxLine is the default output line length threshold.
const DefaultMaxLine = 256

var (
	// ErrGaiji indicates a glyph code with no definition and no override.
	ErrGaiji = errors.New("unresolvable gaiji")

	// ErrBadTag indicates a structurally broken tag sequence, such as a
	// reference tag without its closing tag.
	ErrBadTag = errors.New("malformed tag sequence")
)

// Resolver resolves private glyph codes to code points.
type Resolver interface {
	Resolve(code uint16, halfwidth bool) (rune, bool)
}

// Extractor extracts referenced media payloads. It matches
// [ebd2html/media.Extractor].
type Extractor interface {
	Sound(mode uint16, start, end pos.Position) (string, error)
	MonoImage(width, height int, p pos.Position) (string, error)
	ColorImage(start, end pos.Position) (string, error)
}

// Options are options for a Decoder.
type Options struct {
	// Media extracts referenced media payloads. If nil, media references
	// degrade to textual placeholders.
	Media Extractor

	// MaxLine is the output line length threshold in bytes. Once a decoded
	// line exceeds it a line break is inserted after the next sentence stop.
	MaxLine int
}

// DefaultOptions is the default options for a Decoder.
var DefaultOptions = &Options{
	MaxLine: DefaultMaxLine,
}

// Decoder decodes tag streams. A Decoder is stateless per call and may be
// reused; halfwidth and wrapping state are local to one Decode invocation.
type Decoder struct {
	gaiji   Resolver
	media   Extractor
	maxLine int
}

// NewDecoder returns a new Decoder resolving glyphs through g.
func NewDecoder(g Resolver, options *Options) *Decoder {
	if options == nil {
		options = DefaultOptions
	}
	maxLine := options.MaxLine
	if maxLine == 0 {
		maxLine = DefaultMaxLine
	}
	return &Decoder{
		gaiji:   g,
		media:   options.Media,
		maxLine: maxLine,
	}
}

// Decode decodes a body tag stream to hypertext. Decoding is deterministic
// and pure for a fixed glyph table. A trailing line break is dropped.
func (d *Decoder) Decode(s string) (string, error) {
	var out strings.Builder
	halfwidth := false
	linetop := 0

	for len(s) > 0 {
		if tag, code, ok := cutTag(s); ok {
			rest, err := d.decodeTag(&out, tag, code, s[6:], &halfwidth)
			if err != nil {
				return "", err
			}
			s = rest
			continue
		}

		c, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if halfwidth {
			c = folding.Rune(c)
			writeEscaped(&out, c)
		} else {
			out.WriteRune(c)
		}
		// Rendering concession: long runs of text are broken after a
		// sentence stop once the threshold is exceeded.
		if out.Len()-linetop >= d.maxLine && (c == '.' && halfwidth || c == '。' && !halfwidth) {
			out.WriteByte('\n')
			linetop = out.Len()
		}
	}

	return strings.TrimSuffix(out.String(), "<br />"), nil
}

// decodeTag handles one control or gaiji tag. It receives the stream
// following the tag token and returns the remainder after any argument or
// span the tag consumes.
func (d *Decoder) decodeTag(out *strings.Builder, tag, code, s string, halfwidth *bool) (string, error) {
	switch code {
	case "1F04": // halfwidth start
		*halfwidth = true
	case "1F05": // halfwidth end
		*halfwidth = false
	case "1F06":
		out.WriteString("<sub>")
	case "1F07":
		out.WriteString("</sub>")
	case "1F0A":
		out.WriteString("<br />")
	case "1F0E":
		out.WriteString("<sup>")
	case "1F0F":
		out.WriteString("</sup>")
	case "1F10":
		out.WriteString("<nobr>")
	case "1F11":
		out.WriteString("</nobr>")
	case "1F14": // color swatch; non-nesting span
		rest, err := skipSpan(s, "<1F15>")
		if err != nil {
			return "", err
		}
		out.WriteString("[色見本]")
		return rest, nil
	case "1F1A", "1F1B", "1F1C": // tab stop, indent, centering
		return skipArg(s), nil
	case "1F39": // inline video
		rest, err := skipSpan(s, "<1F59>")
		if err != nil {
			return "", err
		}
		out.WriteString("[動画]")
		return rest, nil
	case "1F3C": // inline monochrome image
		return d.decodeMonoImage(out, s, "<1F5C>")
	case "1F41": // search key start
		return skipArg(s), nil
	case "1F42": // cross reference
		return d.decodeReference(out, s)
	case "1F44": // monochrome figure
		return d.decodeMonoImage(out, s, "<1F64>")
	case "1F4A": // sound
		return d.decodeSound(out, s)
	case "1F4B", "1F4C": // color image data group
		return d.decodeColorImage(out, s, "<1F6"+code[3:]+">")
	case "1F45", "1F4D", "1F4F": // figure heading and color screen groups
		rest, err := skipSpan(s, "<1F6"+code[3:]+">")
		if err != nil {
			return "", err
		}
		out.WriteString("[図版]")
		return rest, nil
	case "1F61": // search key end
	case "1FE0": // style toggle start
		return skipArg(s), nil
	case "1FE1": // style toggle end
	default:
		if code[0] >= 'A' && code[0] <= 'F' {
			return s, d.writeGaiji(out, tag, *halfwidth)
		}
		// Unknown control tags are dropped.
	}
	return s, nil
}

// writeGaiji emits a private glyph reference. Codes in the control range
// below 0xA1 are not glyphs and are escaped as two numeric character
// references.
func (d *Decoder) writeGaiji(out *strings.Builder, tag string, halfwidth bool) error {
	high, ok1 := hexByte(tag[1], tag[2])
	low, ok2 := hexByte(tag[3], tag[4])
	if !ok1 || !ok2 {
		return fmt.Errorf("%w: %q", ErrBadTag, tag)
	}
	if high < 0xa1 {
		fmt.Fprintf(out, "&#x%02X;&#x%02X;", high, low)
		return nil
	}
	code := uint16(high)<<8 | uint16(low)
	cp, ok := d.gaiji.Resolve(code, halfwidth)
	if !ok {
		return fmt.Errorf("%w: %04X (halfwidth=%v)", ErrGaiji, code, halfwidth)
	}
	if 0xe000 <= cp && cp <= 0xf8ff {
		fmt.Fprintf(out, "&#x%04X;", cp)
	} else {
		out.WriteRune(cp)
	}
	return nil
}

// decodeReference decodes a cross reference: literal text, the link target
// tag, and a bracketed target position. The literal span is recursively
// decoded.
func (d *Decoder) decodeReference(out *strings.Builder, s string) (string, error) {
	s = strings.TrimPrefix(s, "→")
	r := strings.Index(s, "<1F62>")
	if r < 0 {
		return "", fmt.Errorf("%w: reference without <1F62>", ErrBadTag)
	}
	text, rest := s[:r], s[r+6:]

	target, rest, ok := pos.CutRef(rest)
	if !ok {
		return "", fmt.Errorf("%w: reference without target position", ErrBadTag)
	}

	decoded, err := d.Decode(text)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "<a href=\"#%s\">%s</a>", target, decoded)
	return rest, nil
}

// decodeSound decodes a sound reference:
// <1F4A><mode>[start][end]alt<1F6A>.
func (d *Decoder) decodeSound(out *strings.Builder, s string) (string, error) {
	if d.media == nil {
		// With extraction disabled the span inner grammar does not
		// matter; any well-terminated span degrades to a placeholder.
		r := strings.Index(s, "<1F6A>")
		if r < 0 {
			return "", fmt.Errorf("%w: sound reference without <1F6A>", ErrBadTag)
		}
		span, rest := s[:r], s[r+6:]
		if _, after, ok := cutArg(span); ok {
			span = after
		}
		for {
			_, after, ok := pos.CutRef(span)
			if !ok {
				break
			}
			span = after
		}
		alt, err := d.Decode(span)
		if err != nil {
			return "", err
		}
		out.WriteString("[音声]")
		out.WriteString(alt)
		return rest, nil
	}

	arg, s, ok := cutArg(s)
	if !ok {
		return "", fmt.Errorf("%w: sound reference without mode", ErrBadTag)
	}
	start, s, ok1 := pos.CutRef(s)
	end, s, ok2 := pos.CutRef(s)
	if !ok1 || !ok2 {
		return "", fmt.Errorf("%w: sound reference without payload range", ErrBadTag)
	}
	r := strings.Index(s, "<1F6A>")
	if r < 0 {
		return "", fmt.Errorf("%w: sound reference without <1F6A>", ErrBadTag)
	}
	altRaw, rest := s[:r], s[r+6:]
	alt, err := d.Decode(altRaw)
	if err != nil {
		return "", err
	}

	name, err := d.media.Sound(arg, start, end)
	if err != nil {
		return "", err
	}
	if name != "" {
		fmt.Fprintf(out, "<a href=\"%s\">%s</a>", name, alt)
		return rest, nil
	}
	out.WriteString("[音声]")
	out.WriteString(alt)
	return rest, nil
}

// decodeMonoImage decodes a monochrome image reference:
// <1F44><width><height>alt<1F64>[data] (and the <1F3C>/<1F5C> inline
// variant). Without an extractor the whole span is replaced by a
// placeholder; the trailing data position is consumed either way.
func (d *Decoder) decodeMonoImage(out *strings.Builder, s string, endTag string) (string, error) {
	if d.media == nil {
		rest, err := skipSpan(s, endTag)
		if err != nil {
			return "", err
		}
		if _, r, ok := pos.CutRef(rest); ok {
			rest = r
		}
		out.WriteString("[図版]")
		return rest, nil
	}

	width, s, ok := cutArg(s)
	if !ok {
		return "", fmt.Errorf("%w: image reference without width", ErrBadTag)
	}
	height, s, ok := cutArg(s)
	if !ok {
		return "", fmt.Errorf("%w: image reference without height", ErrBadTag)
	}
	s, err := skipSpan(s, endTag)
	if err != nil {
		return "", err
	}
	data, rest, ok := pos.CutRef(s)
	if !ok {
		return "", fmt.Errorf("%w: image reference without data position", ErrBadTag)
	}

	name, err := d.media.MonoImage(int(width), int(height), data)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "<img src=\"%s\">", name)
	return rest, nil
}

// decodeColorImage decodes a color image group reference:
// <1F4B>alt<1F6B>[start][end].
func (d *Decoder) decodeColorImage(out *strings.Builder, s string, endTag string) (string, error) {
	s, err := skipSpan(s, endTag)
	if err != nil {
		return "", err
	}
	start, rest, ok1 := pos.CutRef(s)
	end, rest, ok2 := pos.CutRef(rest)

	if d.media == nil || !ok1 || !ok2 {
		if !ok1 {
			rest = s
		}
		out.WriteString("[図版]")
		return rest, nil
	}

	name, err := d.media.ColorImage(start, end)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "<img src=\"%s\">", name)
	return rest, nil
}

// DecodeTitle decodes a heading tag stream. Headings carry no structure;
// only halfwidth toggles and gaiji references are interpreted and every
// other tag is dropped.
func (d *Decoder) DecodeTitle(s string) (string, error) {
	var out strings.Builder
	halfwidth := false

	for len(s) > 0 {
		if tag, code, ok := cutTag(s); ok {
			s = s[6:]
			switch {
			case code == "1F04":
				halfwidth = true
			case code == "1F05":
				halfwidth = false
			case code[0] >= 'A' && code[0] <= 'F':
				if err := d.writeGaiji(&out, tag, halfwidth); err != nil {
					return "", err
				}
			}
			continue
		}

		c, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if halfwidth {
			writeEscaped(&out, folding.Rune(c))
		} else {
			out.WriteRune(c)
		}
	}
	return out.String(), nil
}

// ExtractTitle extracts a candidate entry title from the head of a body
// line. A line beginning with a search key span <1F41><arg>title<1F61>
// yields the span as the title and the text after the span as the
// remainder. The observed convention of a style-toggled span immediately
// following an empty search key, <1F41><arg><1F61><1FE0><arg>title<1FE1>,
// extends the title to the nested span. If the closing tag is missing or
// the span exceeds MaxWord the line is returned unmodified with an empty
// title. The returned title is raw and still needs decoding.
func ExtractTitle(s string) (string, string) {
	if !strings.HasPrefix(s, "<1F41>") || len(s) < 12 {
		return s, ""
	}
	p := s[12:] // skip <1F41><arg>
	r := strings.Index(p, "<1F61>")
	if r < 0 || r >= MaxWord {
		return s, ""
	}
	title := p[:r]
	p = p[r+6:]
	if r == 0 && strings.HasPrefix(p, "<1FE0>") && len(p) >= 12 {
		p = p[12:]
		r = strings.Index(p, "<1FE1>")
		if r < 0 {
			return s, ""
		}
		return p[r+6:], p[:r]
	}
	return p, title
}

// SkipIndent strips a leading indent tag <1F09><arg> and returns the
// remainder and the indent level, zero based. Lines without an indent tag
// are at top level.
func SkipIndent(s string) (string, int) {
	if !strings.HasPrefix(s, "<1F09>") || len(s) < 12 {
		return s, 0
	}
	arg, rest, ok := cutArg(s[6:])
	if !ok {
		return s, 0
	}
	return rest, int(arg) - 1
}

// Indent renders the output indent marker for the given zero-based level.
func Indent(level int) string {
	return fmt.Sprintf("<X4081>1F09 %04X</X4081>", level+1)
}

// cutTag splits a six character tag token <XXXX> off the head of s. It
// returns the full token and the four digit code.
func cutTag(s string) (string, string, bool) {
	if len(s) < 6 || s[0] != '<' || s[5] != '>' {
		return "", "", false
	}
	for i := 1; i < 5; i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'A' <= c && c <= 'F') {
			return "", "", false
		}
	}
	return s[:6], s[1:5], true
}

// cutArg parses a tag-shaped argument token <XXXX> as a 16-bit value.
func cutArg(s string) (uint16, string, bool) {
	_, code, ok := cutTag(s)
	if !ok {
		return 0, s, false
	}
	high, _ := hexByte(code[0], code[1])
	low, _ := hexByte(code[2], code[3])
	return uint16(high)<<8 | uint16(low), s[6:], true
}

// skipArg drops a tag-shaped argument token, if present.
func skipArg(s string) string {
	if _, rest, ok := cutArg(s); ok {
		return rest
	}
	return s
}

// skipSpan drops everything up to and including the given closing tag. The
// tag pairs handled this way are guaranteed non-nesting by the format, so a
// direct search suffices.
func skipSpan(s, endTag string) (string, error) {
	r := strings.Index(s, endTag)
	if r < 0 {
		return "", fmt.Errorf("%w: missing %s", ErrBadTag, endTag)
	}
	return s[r+len(endTag):], nil
}

// hexByte parses two hex digit characters.
func hexByte(hi, lo byte) (byte, bool) {
	h, ok1 := hexDigit(hi)
	l, ok2 := hexDigit(lo)
	return h<<4 | l, ok1 && ok2
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

// writeEscaped writes a folded halfwidth character, escaping the five
// hypertext-unsafe characters.
func writeEscaped(out *strings.Builder, c rune) {
	switch c {
	case '<':
		out.WriteString("&lt;")
	case '>':
		out.WriteString("&gt;")
	case '&':
		out.WriteString("&amp;")
	case '"':
		out.WriteString("&quot;")
	case '\'':
		out.WriteString("&apos;")
	default:
		out.WriteRune(c)
	}
}
