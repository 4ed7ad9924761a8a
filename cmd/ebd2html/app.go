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

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"ebd2html"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError
)

// ErrEbd2html is a parent error for all command errors.
var ErrEbd2html = errors.New("ebd2html")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrEbd2html)

var copyrightNames = []string{
	"2025 The ebd2html Authors",
}

//nolint:gochecknoinits // init needed needed for global variable.
func init() {
	// Set the HelpFlag to a random name so that it isn't used. `cli` handles
	// the flag with the root command such that it takes a command name argument
	// but we don't use commands.
	//
	// This is done because `ebd2html --help foo` will display a
	// "command foo not found" error instead of the help.
	//
	// This flag is hidden by the help output.
	// See: github.com/urfave/cli/issues/1809
	cli.HelpFlag = &cli.BoolFlag{
		// NOTE: Use a random name no one would guess.
		Name:               "d41d8cd98f00b204e980",
		DisableDefaultText: true,
	}
}

// check checks the error and panics if not nil.
func check(err error) {
	if err != nil {
		panic(err)
	}
}

// loadConfig loads the conversion settings named by the --config flag.
func loadConfig(c *cli.Context) (*ebd2html.Config, error) {
	path := c.String("config")
	if path == "" {
		path = filepath.Join(c.String("dir"), ebd2html.DefaultConfigFile)
	}
	cfg, err := ebd2html.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEbd2html, err)
	}
	return cfg, nil
}

func newEbd2htmlApp() *cli.App {
	return &cli.App{
		Name:  filepath.Base(os.Args[0]),
		Usage: "Rebuild dictionary compiler input from dictionary dump data.",
		Description: strings.Join([]string{
			"Converts dumped EB/EPWING dictionary data into the hypertext,",
			"gaiji documents and project descriptor a dictionary compiler",
			"needs to rebuild the book.",
		}, "\n"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "read conversion settings from `FILE`",
				Aliases: []string{"c"},
			},
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "read dump files from `DIR`",
				Aliases: []string{"C"},
				Value:   ".",
			},

			// Special flags are shown at the end.
			&cli.BoolFlag{
				Name:               "help",
				Usage:              "print this help text and exit",
				Aliases:            []string{"h"},
				DisableDefaultText: true,
			},
			&cli.BoolFlag{
				Name:               "version",
				Usage:              "print version information and exit",
				Aliases:            []string{"V"},
				DisableDefaultText: true,
			},
		},
		Copyright:       strings.Join(copyrightNames, "\n"),
		HideHelp:        true,
		HideHelpCommand: true,
		Action: func(c *cli.Context) error {
			if c.Bool("version") {
				return printVersion(c)
			}

			check(cli.ShowAppHelp(c))
			return nil
		},
		Commands: []*cli.Command{
			convertCommand(),
			infoCommand(),
			previewCommand(),
		},
	}
}
