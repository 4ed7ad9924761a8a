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
	"fmt"
	"os"
	"path/filepath"

	"github.com/k3a/html2text"
	"github.com/urfave/cli/v2"
	"golang.org/x/text/transform"

	"ebd2html/internal/folding"
)

// previewCommand renders the generated hypertext as plain text, for
// checking a conversion without running the dictionary compiler.
func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "render the generated hypertext as plain text",
		ArgsUsage: "[FILE]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "fold",
				Usage: "fold full-width alphanumerics to ASCII",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				cfg, err := loadConfig(c)
				if err != nil {
					return err
				}
				path = filepath.Join(cfg.BasePath, cfg.HTMLFile())
			}

			b, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("%w: reading hypertext: %w", ErrEbd2html, err)
			}
			text := html2text.HTML2Text(string(b))
			if c.Bool("fold") {
				text, _, err = transform.String(&folding.HalfwidthFolder{}, text)
				if err != nil {
					return fmt.Errorf("%w: folding text: %w", ErrEbd2html, err)
				}
			}
			fmt.Fprintln(c.App.Writer, text)
			return nil
		},
	}
}
