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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"ebd2html/align"
	"ebd2html/gaiji"
	"ebd2html/index"
	"ebd2html/markup"
	"ebd2html/media"
)

// Dump file names produced by the dictionary dumper. All dumps are Shift
// JIS encoded text.
const (
	kanaIndexFile  = "fkindex.txt"
	kanaTitleFile  = "fktitle.txt"
	hyokiIndexFile = "fhindex.txt"
	hyokiTitleFile = "fhtitle.txt"
	alphaIndexFile = "faindex.txt"
	alphaTitleFile = "fatitle.txt"
	halfGaijiFile  = "hgaiji.txt"
	fullGaijiFile  = "zgaiji.txt"
	honmonFile     = "honmon.txt"
)

// Generated file names.
const (
	gaijiFontFile = "Gaiji.xml"
	gaijiMapFile  = "GaijiMap.xml"
)

// Options are options for a Converter.
type Options struct {
	// Dir is the directory holding the dump files. Defaults to the
	// current directory.
	Dir string

	// Generator is the generator name recorded in the hypertext head.
	Generator string
}

// DefaultOptions is the default options for a Converter.
var DefaultOptions = &Options{
	Dir:       ".",
	Generator: "ebd2html",
}

// Converter runs a full conversion: glyph table and font documents, work
// data, hypertext, and project descriptor.
type Converter struct {
	cfg       *Config
	dir       string
	generator string

	glyphs *gaiji.Table
	dec    *markup.Decoder
}

// NewConverter returns a Converter for the given settings.
func NewConverter(cfg *Config, options *Options) *Converter {
	if options == nil {
		options = DefaultOptions
	}
	dir := options.Dir
	if dir == "" {
		dir = DefaultOptions.Dir
	}
	generator := options.Generator
	if generator == "" {
		generator = DefaultOptions.Generator
	}
	return &Converter{
		cfg:       cfg,
		dir:       dir,
		generator: generator,
	}
}

// Run performs the conversion. Stages run in order since each consumes the
// previous stage's output; ctx cancellation is honored between stages.
func (c *Converter) Run(ctx context.Context) error {
	start := time.Now()

	stages := []struct {
		name string
		run  func() error
	}{
		{"directories", c.makeDirs},
		{"gaiji", c.buildGaiji},
		{"html", c.writeHTML},
	}
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("conversion canceled: %w", err)
		}
		if err := stage.run(); err != nil {
			return fmt.Errorf("%s: %w", stage.name, err)
		}
	}

	logrus.Infof("conversion finished in %s", time.Since(start).Round(time.Second))
	logrus.Infof("feed %s to the dictionary compiler",
		filepath.Join(c.cfg.BasePath, c.cfg.EBSFile()))
	return nil
}

// makeDirs creates the compiler base and output directories.
func (c *Converter) makeDirs() error {
	for _, dir := range []string{c.cfg.BasePath, c.cfg.OutPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %q: %w", dir, err)
		}
	}
	return nil
}

// buildGaiji loads the glyph dumps and writes the font and glyph map
// documents. An override map named after the book directory, when present
// in the base directory, pins glyph assignments before loading.
func (c *Converter) buildGaiji() error {
	logrus.Info("generating gaiji files...")

	tbl := gaiji.New()
	overridePath := filepath.Join(c.cfg.BasePath, c.cfg.OverrideMapFile())
	if _, err := os.Stat(overridePath); err == nil {
		logrus.Infof("reading override map %s", overridePath)
		if err := c.readSJIS(overridePath, tbl.ReadOverrides); err != nil {
			return err
		}
	}

	half, err := openSJIS(filepath.Join(c.dir, halfGaijiFile))
	if err != nil {
		return err
	}
	defer half.Close()
	full, err := openSJIS(filepath.Join(c.dir, fullGaijiFile))
	if err != nil {
		return err
	}
	defer full.Close()
	if err := tbl.Load(half, full); err != nil {
		return err
	}

	if err := c.writeSJIS(filepath.Join(c.cfg.BasePath, gaijiFontFile), tbl.WriteFont); err != nil {
		return err
	}
	if err := c.writeSJIS(filepath.Join(c.cfg.BasePath, gaijiMapFile), tbl.WriteMap); err != nil {
		return err
	}
	c.glyphs = tbl
	return nil
}

// loadIndexes reads whichever index and heading dumps exist. The decoder
// must be ready since index text decodes on load.
func (c *Converter) loadIndexes() (align.Indexes, error) {
	var idx align.Indexes

	classes := []struct {
		name      string
		indexFile string
		titleFile string
		cursor    **index.Cursor
	}{
		{"kana", kanaIndexFile, kanaTitleFile, &idx.Kana},
		{"hyoki", hyokiIndexFile, hyokiTitleFile, &idx.Hyoki},
		{"alpha", alphaIndexFile, alphaTitleFile, &idx.Alpha},
	}
	for _, class := range classes {
		path := filepath.Join(c.dir, class.indexFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		logrus.Infof("converting %s index data...", class.name)
		var entries []index.Entry
		err := c.readSJIS(path, func(r io.Reader) error {
			var err error
			entries, err = index.ParseIndex(r, c.dec)
			return err
		})
		if err != nil {
			return idx, err
		}

		titles := index.Titles{}
		titlePath := filepath.Join(c.dir, class.titleFile)
		if _, err := os.Stat(titlePath); err == nil {
			logrus.Infof("converting %s title data...", class.name)
			err := c.readSJIS(titlePath, func(r io.Reader) error {
				var err error
				titles, err = index.ParseTitles(r, c.dec)
				return err
			})
			if err != nil {
				return idx, err
			}
		}
		*class.cursor = index.NewCursor(entries, titles)
	}
	return idx, nil
}

// writeHTML aligns the body dump with the indexes into the hypertext file,
// then writes the project descriptor for the key classes that were
// generated.
func (c *Converter) writeHTML() error {
	options := &markup.Options{}
	if c.cfg.HonmonBlob != "" {
		e, err := media.Open(c.cfg.HonmonBlob, c.cfg.BasePath)
		if err != nil {
			return err
		}
		defer e.Close()
		options.Media = e
	}
	c.dec = markup.NewDecoder(c.glyphs, options)

	idx, err := c.loadIndexes()
	if err != nil {
		return err
	}

	honmon, err := openSJIS(filepath.Join(c.dir, honmonFile))
	if err != nil {
		return err
	}
	defer honmon.Close()

	logrus.Info("generating html file...")
	htmlPath := filepath.Join(c.cfg.BasePath, c.cfg.HTMLFile())
	f, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("creating %q: %w", htmlPath, err)
	}
	defer f.Close()

	stats, err := align.Run(f, honmon, c.dec, idx, &align.Options{
		AutoKana:  c.cfg.AutoKana,
		Generator: c.generator,
	})
	if err != nil {
		return err
	}

	logrus.Info("generating ebs file...")
	return c.writeSJIS(filepath.Join(c.cfg.BasePath, c.cfg.EBSFile()),
		func(w io.Writer) error {
			return WriteProject(w, c.cfg, stats)
		})
}

// sjisReader decodes a Shift JIS file to UTF-8.
type sjisReader struct {
	io.Reader
	f *os.File
}

func (r *sjisReader) Close() error {
	return r.f.Close()
}

// openSJIS opens a Shift JIS encoded dump file for reading as UTF-8.
func openSJIS(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump %q: %w", path, err)
	}
	return &sjisReader{
		Reader: transform.NewReader(f, japanese.ShiftJIS.NewDecoder()),
		f:      f,
	}, nil
}

// readSJIS runs read over the decoded contents of a Shift JIS file.
func (c *Converter) readSJIS(path string, read func(io.Reader) error) error {
	r, err := openSJIS(path)
	if err != nil {
		return err
	}
	defer r.Close()
	return read(r)
}

// writeSJIS runs write into a newly created Shift JIS encoded file.
func (c *Converter) writeSJIS(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	defer f.Close()

	w := transform.NewWriter(f, japanese.ShiftJIS.NewEncoder())
	if err := write(w); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("encoding %q: %w", path, err)
	}
	return f.Close()
}

// InputInfo describes one dump file of a conversion source directory.
type InputInfo struct {
	// Name is the dump file name.
	Name string

	// Description says what the dump holds.
	Description string

	// Present is true if the file exists.
	Present bool

	// Size is the file size in bytes, zero when absent.
	Size int64
}

// Inspect reports the dump files in dir that a conversion would read.
func Inspect(dir string) []InputInfo {
	files := []struct {
		name        string
		description string
	}{
		{honmonFile, "body text"},
		{kanaIndexFile, "kana index"},
		{kanaTitleFile, "kana titles"},
		{hyokiIndexFile, "hyoki index"},
		{hyokiTitleFile, "hyoki titles"},
		{alphaIndexFile, "alphabetic index"},
		{alphaTitleFile, "alphabetic titles"},
		{halfGaijiFile, "half-width gaiji bitmaps"},
		{fullGaijiFile, "full-width gaiji bitmaps"},
	}

	infos := make([]InputInfo, 0, len(files))
	for _, file := range files {
		info := InputInfo{
			Name:        file.name,
			Description: file.description,
		}
		if st, err := os.Stat(filepath.Join(dir, file.name)); err == nil {
			info.Present = true
			info.Size = st.Size()
		}
		infos = append(infos, info)
	}
	return infos
}
