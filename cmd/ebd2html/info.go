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
	"strconv"

	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"ebd2html"
)

// infoCommand reports the conversion settings and the dump files of the
// source directory.
func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "show the conversion settings and dump files",
		Action: func(c *cli.Context) error {
			if cfg, err := loadConfig(c); err == nil {
				settings := table.New("Setting", "Value")
				settings.WithWriter(c.App.Writer)
				settings.AddRow("BASEPATH", cfg.BasePath)
				settings.AddRow("OUTPATH", cfg.OutPath)
				settings.AddRow("AUTOKANA", strconv.FormatBool(cfg.AutoKana))
				settings.AddRow("EBTYPE", strconv.Itoa(cfg.EBType))
				settings.AddRow("BOOKTITLE", cfg.BookTitle)
				settings.AddRow("BOOKTYPE", cfg.BookType)
				settings.AddRow("BOOKDIR", cfg.BookDir)
				settings.AddRow("html file", cfg.HTMLFile())
				settings.AddRow("ebs file", cfg.EBSFile())
				settings.Print()
				fmt.Fprintln(c.App.Writer)
			} else {
				fmt.Fprintf(c.App.Writer, "settings not loaded: %v\n\n", err)
			}

			files := table.New("File", "Description", "Present", "Size")
			files.WithWriter(c.App.Writer)
			for _, info := range ebd2html.Inspect(c.String("dir")) {
				present := "no"
				size := "-"
				if info.Present {
					present = "yes"
					size = strconv.FormatInt(info.Size, 10)
				}
				files.AddRow(info.Name, info.Description, present, size)
			}
			files.Print()
			return nil
		},
	}
}
