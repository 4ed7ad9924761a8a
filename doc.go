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

// Package ebd2html rebuilds dictionary compiler input from dictionary
// dump data.
//
// EB and EPWING dictionaries dump to block/offset addressed text files:
// a body dump, up to three search index dumps with heading dumps
// alongside, and private glyph bitmap dumps. A conversion reads these,
// assigns Unicode private use code points to the glyphs, decodes the
// escape-tag markup, aligns the indexes with the body, and writes the
// hypertext, glyph documents and project descriptor the compiler needs
// to rebuild the book.
//
// The conversion settings live in an INI file; see [Config]. [Converter]
// drives the full pipeline, and the underlying stages live in the gaiji,
// index, markup, media and align packages.
package ebd2html
