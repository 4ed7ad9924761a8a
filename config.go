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

package ebd2html

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// DefaultConfigFile is the conversion settings file read when no other
// path is given.
const DefaultConfigFile = "ebd2html.ini"

// bookTypes are the book type names the dictionary compiler accepts.
var bookTypes = map[string]bool{
	"国語辞典":   true,
	"漢和辞典":   true,
	"英和辞典":   true,
	"和英辞典":   true,
	"現代用語辞典": true,
	"一般書物":   true,
	"類語辞典":   true,
}

// Config holds the conversion settings.
type Config struct {
	// BasePath is the compiler base directory. Generated files are
	// written here.
	BasePath string

	// OutPath is the compiler output directory.
	OutPath string

	// AutoKana derives phonetic search keys from kana-only orthographic
	// keys.
	AutoKana bool

	// EBType selects the compile target: 0 for EPWING, 1 for electronic
	// book.
	EBType int

	// BookTitle is the book title recorded in the project descriptor.
	BookTitle string

	// BookType is the book type name recorded in the project descriptor.
	BookType string

	// BookDir is the book directory name, up to 8 bytes of A-Z, 0-9 and
	// underscore. Generated file names derive from it.
	BookDir string

	// HonmonBlob is the path of the body binary for media extraction.
	// Empty disables extraction and media references degrade to textual
	// placeholders.
	HonmonBlob string
}

// LoadConfig reads the conversion settings file at path. Settings that
// would only produce a broken book, such as an unknown book type, are
// reported but do not fail the load.
func LoadConfig(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading settings %q: %w", path, err)
	}
	s := f.Section("")

	cfg := &Config{
		BasePath:   s.Key("BASEPATH").String(),
		OutPath:    s.Key("OUTPATH").String(),
		AutoKana:   s.Key("AUTOKANA").MustBool(false),
		EBType:     s.Key("EBTYPE").MustInt(0),
		BookTitle:  s.Key("BOOKTITLE").String(),
		BookType:   s.Key("BOOKTYPE").String(),
		BookDir:    s.Key("BOOKDIR").String(),
		HonmonBlob: s.Key("HONMON").String(),
	}

	for _, req := range []struct {
		key   string
		value string
	}{
		{"BASEPATH", cfg.BasePath},
		{"OUTPATH", cfg.OutPath},
		{"BOOKDIR", cfg.BookDir},
	} {
		if req.value == "" {
			return nil, fmt.Errorf("settings %q: %s is not set", path, req.key)
		}
	}

	if !bookTypes[cfg.BookType] {
		logrus.Warnf("unknown book type %q", cfg.BookType)
	}
	if len(cfg.BookDir) > 8 {
		logrus.Warnf("book directory name %q exceeds 8 bytes", cfg.BookDir)
	}
	for _, c := range cfg.BookDir {
		if !('A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '_') {
			logrus.Warnf("book directory name %q holds characters outside A-Z, 0-9 and _", cfg.BookDir)
			break
		}
	}
	return cfg, nil
}

// HTMLFile returns the name of the generated hypertext file.
func (c *Config) HTMLFile() string {
	return c.BookDir + ".html"
}

// EBSFile returns the name of the generated project descriptor.
func (c *Config) EBSFile() string {
	return c.BookDir + ".ebs"
}

// OverrideMapFile returns the name of the optional glyph override map.
func (c *Config) OverrideMapFile() string {
	return c.BookDir + ".map"
}
