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
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLogFile is the conversion log file name.
const DefaultLogFile = "ebd2html.log"

// SetupLogging directs the standard logger to both the terminal and the
// given log file, appending across runs so one log accumulates the history
// of a conversion session. The returned closer flushes and closes the file.
func SetupLogging(path string) (io.Closer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file %q: %w", path, err)
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return f, nil
}
