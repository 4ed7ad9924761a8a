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

	"github.com/urfave/cli/v2"
	"sigs.k8s.io/release-utils/version"
)

// printVersion prints build version information.
func printVersion(c *cli.Context) error {
	info := version.GetVersionInfo()
	info.Name = c.App.Name
	info.Description = c.App.Usage
	_, err := fmt.Fprintln(c.App.Writer, info.String())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEbd2html, err)
	}
	return nil
}
