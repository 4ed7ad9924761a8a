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
	"path/filepath"

	"github.com/urfave/cli/v2"
	"sigs.k8s.io/release-utils/version"

	"ebd2html"
)

// convertCommand runs a full conversion.
func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "convert dump data to compiler input",
		Description: "Runs the full conversion: gaiji documents, work data, " +
			"hypertext, and the project descriptor.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "append the conversion log to `FILE`",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			logPath := c.String("log")
			if logPath == "" {
				logPath = filepath.Join(c.String("dir"), ebd2html.DefaultLogFile)
			}
			logCloser, err := ebd2html.SetupLogging(logPath)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrEbd2html, err)
			}
			defer logCloser.Close()

			conv := ebd2html.NewConverter(cfg, &ebd2html.Options{
				Dir:       c.String("dir"),
				Generator: "ebd2html " + version.GetVersionInfo().GitVersion,
			})
			if err := conv.Run(c.Context); err != nil {
				return fmt.Errorf("%w: %w", ErrEbd2html, err)
			}
			return nil
		},
	}
}
