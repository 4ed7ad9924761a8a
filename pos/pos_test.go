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

package pos_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"ebd2html/pos"
)

// TestNew_renormalize tests that an offset of 0x0800 rolls over to the start
// of the next block and that the linear position is invariant under the
// pre/post renormalized forms.
func TestNew_renormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		block, offset int64

		expectedBlock  int64
		expectedOffset int64
	}{
		{
			name:   "zero",
			block:  0,
			offset: 0,

			expectedBlock:  0,
			expectedOffset: 0,
		},
		{
			name:   "plain offset",
			block:  3,
			offset: 0x7ff,

			expectedBlock:  3,
			expectedOffset: 0x7ff,
		},
		{
			name:   "rollover",
			block:  3,
			offset: 0x800,

			expectedBlock:  4,
			expectedOffset: 0,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := pos.New(tc.block, tc.offset)
			if got, want := p.Block(), tc.expectedBlock; got != want {
				t.Errorf("Block: got %d, want %d", got, want)
			}
			if got, want := p.Offset(), tc.expectedOffset; got != want {
				t.Errorf("Offset: got %d, want %d", got, want)
			}
		})
	}

	if got, want := pos.New(3, 0x800), pos.New(4, 0); got != want {
		t.Errorf("renormalized positions differ: %v, %v", got, want)
	}
}

// TestPosition_order tests that positions form a strict total order.
func TestPosition_order(t *testing.T) {
	t.Parallel()

	ps := []pos.Position{
		pos.New(0, 0),
		pos.New(0, 1),
		pos.New(0, 0x7ff),
		pos.New(1, 0),
		pos.New(1, 0x321),
		pos.New(0x1000, 0),
	}
	for i, a := range ps {
		for j, b := range ps {
			switch {
			case i < j && !(a < b):
				t.Errorf("want %v < %v", a, b)
			case i == j && a != b:
				t.Errorf("want %v == %v", a, b)
			case i > j && !(a > b):
				t.Errorf("want %v > %v", a, b)
			}
		}
	}
}

func TestPosition_String(t *testing.T) {
	t.Parallel()

	if got, want := pos.New(0x123, 0x45).String(), "000001230045"; got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
	if got, want := pos.New(0x123, 0x45).Ref(), "[00000123:0045]"; got != want {
		t.Errorf("Ref: got %q, want %q", got, want)
	}
}

func TestCutRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string

		expectedPos  pos.Position
		expectedRest string
		expectedOK   bool
	}{
		{
			name: "simple",
			in:   "[2a:10]text",

			expectedPos:  pos.New(0x2a, 0x10),
			expectedRest: "text",
			expectedOK:   true,
		},
		{
			name: "padded offset",
			in:   "[00000123:  45]rest",

			expectedPos:  pos.New(0x123, 0x45),
			expectedRest: "rest",
			expectedOK:   true,
		},
		{
			name: "rollover offset",
			in:   "[1:800]",

			expectedPos:  pos.New(2, 0),
			expectedRest: "",
			expectedOK:   true,
		},
		{
			name: "not a reference",
			in:   "text[1:2]",

			expectedRest: "text[1:2]",
		},
		{
			name: "missing colon",
			in:   "[12345]",

			expectedRest: "[12345]",
		},
		{
			name: "bad hex",
			in:   "[12:xg]",

			expectedRest: "[12:xg]",
		},
		{
			name: "unterminated",
			in:   "[12:34",

			expectedRest: "[12:34",
		},
		{
			name: "block field overflows",
			in:   "[ffffffffffffffffff:10]",

			expectedRest: "[ffffffffffffffffff:10]",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p, rest, ok := pos.CutRef(tc.in)
			if ok != tc.expectedOK {
				t.Fatalf("CutRef ok: got %v, want %v", ok, tc.expectedOK)
			}
			if ok {
				if diff := cmp.Diff(tc.expectedPos, p); diff != "" {
					t.Errorf("CutRef pos (-want, +got):\n%s", diff)
				}
			}
			if diff := cmp.Diff(tc.expectedRest, rest); diff != "" {
				t.Errorf("CutRef rest (-want, +got):\n%s", diff)
			}
		})
	}
}
