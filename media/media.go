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

// Package media extracts embedded audio and image data from the honmon
// binary blob.
//
// The blob stores payloads headerless at block/offset addresses. Audio is
// raw PCM that is wrapped in a RIFF/WAVE container on extraction; monochrome
// images are 1-bit rasters that are rebuilt as BMP files. Color images are
// self-contained after their own small preamble and pass through unchanged.
// Output files are named by the payload's start position so repeated runs
// are idempotent.
package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ianlewis/go-dictzip"

	"ebd2html/pos"
)

// ErrRange indicates a media reference pointing outside the content blob.
var ErrRange = errors.New("media reference out of range")

// Sound mode flag bits. Bits 8-9 select the sample rate.
const (
	modeStereo = 0x0001
	mode16Bit  = 0x0010
	// Encoding bits other than the sample width. Any of these set means the
	// payload is not simple PCM and cannot be resynthesized.
	modeNonPCM = 0x00e0
)

// sampleRates are the three rates the format can declare.
var sampleRates = []uint32{11025, 22050, 44100}

// Extractor extracts media payloads from a content blob into an output
// directory.
type Extractor struct {
	blob   io.ReaderAt
	closer io.Closer
	dir    string
}

// Open opens the content blob at the given path for extraction into dir.
// A path ending in .dz is treated as a dictzip-compressed blob and accessed
// through its random access index.
func Open(path, dir string) (*Extractor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening content blob: %w", err)
	}

	var r io.ReaderAt = f
	if strings.EqualFold(filepath.Ext(path), ".dz") {
		z, err := dictzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening %q: %w", path, err)
		}
		r = z
	}

	return &Extractor{
		blob:   r,
		closer: f,
		dir:    dir,
	}, nil
}

// New returns an Extractor reading from r. Used by tests and callers that
// manage the blob themselves.
func New(r io.ReaderAt, dir string) *Extractor {
	return &Extractor{
		blob: r,
		dir:  dir,
	}
}

// Close closes the underlying blob file.
func (e *Extractor) Close() error {
	if e.closer == nil {
		return nil
	}
	if err := e.closer.Close(); err != nil {
		return fmt.Errorf("closing content blob: %w", err)
	}
	return nil
}

// read slices n bytes of the blob starting at p. A short or failed read is a
// structural error that must abort the enclosing decode.
func (e *Extractor) read(p pos.Position, n int64) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: empty range at %v", ErrRange, p)
	}
	b := make([]byte, n)
	if _, err := e.blob.ReadAt(b, int64(p)); err != nil {
		return nil, fmt.Errorf("%w: %d bytes at %v: %v", ErrRange, n, p, err)
	}
	return b, nil
}

// Sound extracts the audio payload in [start, end) and synthesizes a WAVE
// file around it. The mode argument declares channel count, sample width,
// and sample rate. Sound returns the name of the written file, or "" if the
// payload's encoding mode cannot be resynthesized and the caller should fall
// back to a placeholder.
func (e *Extractor) Sound(mode uint16, start, end pos.Position) (string, error) {
	if mode&modeNonPCM != 0 {
		// Not simple PCM.
		return "", nil
	}
	rateCode := int(mode >> 8 & 0x3)
	if rateCode >= len(sampleRates) {
		return "", nil
	}

	data, err := e.read(start, int64(end-start))
	if err != nil {
		return "", err
	}

	var channels uint16 = 1
	if mode&modeStereo != 0 {
		channels = 2
	}
	var bits uint16 = 8
	if mode&mode16Bit != 0 {
		bits = 16
	}

	name := fmt.Sprintf("%s.wav", start)
	if err := e.writeFile(name, wavHeader(uint32(len(data)), channels, sampleRates[rateCode], bits), data); err != nil {
		return "", err
	}
	return name, nil
}

// wavHeader builds the 44-byte RIFF/WAVE header for a PCM payload of n
// bytes.
func wavHeader(n uint32, channels uint16, rate uint32, bits uint16) []byte {
	blockAlign := channels * bits / 8
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, n+36)
	b.WriteString("WAVEfmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&b, binary.LittleEndian, channels)
	binary.Write(&b, binary.LittleEndian, rate)
	binary.Write(&b, binary.LittleEndian, rate*uint32(blockAlign))
	binary.Write(&b, binary.LittleEndian, blockAlign)
	binary.Write(&b, binary.LittleEndian, bits)
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, n)
	return b.Bytes()
}

// MonoImage extracts a 1-bit raster of the given dimensions stored at p and
// rebuilds it as a BMP file. The source raster is stored top-to-bottom with
// inverted polarity and byte-aligned rows; the BMP is written bottom-up with
// rows padded to 4 bytes and a black/white palette.
func (e *Extractor) MonoImage(width, height int, p pos.Position) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("%w: bad raster size %dx%d at %v", ErrRange, width, height, p)
	}
	srcRow := (width + 7) / 8
	data, err := e.read(p, int64(srcRow*height))
	if err != nil {
		return "", err
	}

	dstRow := (width + 31) / 32 * 4
	const headerSize = 14 + 40 + 2*4
	image := uint32(dstRow * height)

	var b bytes.Buffer
	// BITMAPFILEHEADER
	b.WriteString("BM")
	binary.Write(&b, binary.LittleEndian, headerSize+image)
	binary.Write(&b, binary.LittleEndian, uint32(0))
	binary.Write(&b, binary.LittleEndian, uint32(headerSize))
	// BITMAPINFOHEADER
	binary.Write(&b, binary.LittleEndian, uint32(40))
	binary.Write(&b, binary.LittleEndian, int32(width))
	binary.Write(&b, binary.LittleEndian, int32(height)) // positive height: bottom-up
	binary.Write(&b, binary.LittleEndian, uint16(1))     // planes
	binary.Write(&b, binary.LittleEndian, uint16(1))     // bits per pixel
	binary.Write(&b, binary.LittleEndian, uint32(0))     // BI_RGB
	binary.Write(&b, binary.LittleEndian, image)
	binary.Write(&b, binary.LittleEndian, int32(0)) // x pixels per meter
	binary.Write(&b, binary.LittleEndian, int32(0)) // y pixels per meter
	binary.Write(&b, binary.LittleEndian, uint32(2))
	binary.Write(&b, binary.LittleEndian, uint32(2))
	// Palette: 0 = black, 1 = white, each BGRA.
	b.Write([]byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0})

	row := make([]byte, dstRow)
	for y := height - 1; y >= 0; y-- {
		src := data[y*srcRow : (y+1)*srcRow]
		for i, v := range src {
			row[i] = ^v
		}
		for i := srcRow; i < dstRow; i++ {
			row[i] = 0
		}
		b.Write(row)
	}

	name := fmt.Sprintf("%s.bmp", p)
	if err := e.writeFile(name, b.Bytes(), nil); err != nil {
		return "", err
	}
	return name, nil
}

// ColorImage extracts the self-contained color payload in [start, end). The
// payload carries an 8-byte preamble ahead of ordinary JPEG or BMP data; the
// preamble is dropped and the rest passes through unchanged.
func (e *Extractor) ColorImage(start, end pos.Position) (string, error) {
	data, err := e.read(start, int64(end-start))
	if err != nil {
		return "", err
	}
	if len(data) <= 8 {
		return "", fmt.Errorf("%w: color payload too short at %v", ErrRange, start)
	}
	data = data[8:]

	ext := ".bmp"
	if len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8 {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%s%s", start, ext)
	if err := e.writeFile(name, data, nil); err != nil {
		return "", err
	}
	return name, nil
}

// writeFile writes header and payload to a file in the output directory.
func (e *Extractor) writeFile(name string, header, payload []byte) error {
	f, err := os.Create(filepath.Join(e.dir, name))
	if err != nil {
		return fmt.Errorf("creating media file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(header); err != nil {
		return fmt.Errorf("writing %q: %w", name, err)
	}
	if payload != nil {
		if _, err := f.Write(payload); err != nil {
			return fmt.Errorf("writing %q: %w", name, err)
		}
	}
	return nil
}
