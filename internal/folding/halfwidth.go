// Copyright 2025 The ebd2html Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package folding implements character folding for dump text.
package folding

import (
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// zen2han maps full-width symbols (JIS X 0208 rows 1 and 2) to their
// half-width/ASCII equivalents. Full-width alphanumerics are handled
// separately by Rune since they form contiguous ranges.
var zen2han = map[rune]rune{
	'　': ' ', '，': ',', '．': '.', '：': ':', '；': ';',
	'？': '?', '！': '!', '＾': '^', '〜': '~', '￣': '~', '＿': '_',
	'／': '/', '＼': '\\', '～': '~', '‖': '|', '｜': '|',
	'＇': '\'', '‘': '\'', '’': '\'', '＂': '"', '“': '"', '”': '"',
	'（': '(', '）': ')', '［': '[', '］': ']',
	'「': '[', '」': ']', '｛': '{', '｝': '}',
	'＋': '+', '－': '-', '＝': '=', '＜': '<', '＞': '>',
	'￥': '\\', '＄': '$', '％': '%',
	'＃': '#', '＆': '&', '＊': '*', '＠': '@',
}

// Rune folds a single full-width alphanumeric or symbol to its half-width
// equivalent. Runes with no half-width form are returned unchanged.
func Rune(c rune) rune {
	switch {
	case 'Ａ' <= c && c <= 'Ｚ':
		return c - 'Ａ' + 'A'
	case 'ａ' <= c && c <= 'ｚ':
		return c - 'ａ' + 'a'
	case '０' <= c && c <= '９':
		return c - '０' + '0'
	}
	if h, ok := zen2han[c]; ok {
		return h
	}
	return c
}

// IsKana reports whether s consists only of hiragana, katakana and the
// long vowel mark. The empty string is not kana.
func IsKana(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !('ぁ' <= c && c <= 'ん' || 'ァ' <= c && c <= 'ン' || c == 'ー') {
			return false
		}
	}
	return true
}

// HalfwidthFolder is a [transform.Transformer] that folds full-width
// alphanumerics and symbols to their half-width equivalents.
type HalfwidthFolder struct{}

// Transform implements [transform.Transformer.Transform].
func (*HalfwidthFolder) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	var nSrc, nDst int
	for nSrc < len(src) {
		c, size := utf8.DecodeRune(src[nSrc:])
		if c == utf8.RuneError && !atEOF {
			return nDst, nSrc, transform.ErrShortSrc
		}

		f := Rune(c)
		// NOTE: we cannot use size for the output length because the folded
		// rune is usually narrower than the input rune.
		if nDst+utf8.RuneLen(f) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += utf8.EncodeRune(dst[nDst:], f)
		nSrc += size
	}

	return nDst, nSrc, nil
}

// Reset implements [transform.Transformer.Reset].
func (*HalfwidthFolder) Reset() {}
