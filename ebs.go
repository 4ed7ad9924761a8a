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
	"text/template"

	"ebd2html/align"
)

// ebsTemplate is the project descriptor handed to the dictionary
// compiler. Word search methods are enabled per key class actually
// generated; everything else is fixed. Paths use the compiler's
// $(BASE) macro and backslash separators.
var ebsTemplate = template.Must(template.New("ebs").Parse(`InPath={{.InPath}}
OutPath={{.OutPath}}
IndexFile=
Copyright=
GaijiFile=$(BASE)\{{.GaijiFile}}
GaijiMapFile=$(BASE)\{{.GaijiMapFile}}
EBType={{.EBType}}
WordSearchHyoki={{.Hyoki}}
WordSearchKana={{.Kana}}
EndWordSearchHyoki={{.Hyoki}}
EndWordSearchKana={{.Kana}}
KeywordSearch=0
ComplexSearch=0
topMenu=0
singleLine=1
kanaSep1=【
kanaSep2=】
hyokiSep=0
makeFig=0
inlineImg=0
paraHdr=0
ruby=1
paraBr=0
subTitle=0
dfnStyle=0
srchUnit=1
linkChar=0
arrowCode=222A
eijiPronon=1
eijiPartOfSpeech=1
eijiBreak=1
eijiKana=0
leftMargin=0
indent=0
tableWidth=480
StopWord=
delBlank=1
delSym=1
delChars=
refAuto=0
titleWord=0
autoWord=0
autoEWord=0
HTagIndex=0
DTTagIndex=1
dispKeyInSelList=0
titleOrder=0
omitHeader=0
addKana=1
autoKana=0
withHeader=0
optMono=0
Size=20000;30000;100;3000000;20000;20000;20000;1000;1000;1000;1000
Book={{.BookTitle}};{{.BookDir}};{{.BookType}};_;_;GAI16H00;GAI16F00;_;_;_;_;_;_;
Source=$(BASE)\{{.HTMLFile}};本文;_;HTML;
`))

// ebsData is the template context for the project descriptor.
type ebsData struct {
	InPath       string
	OutPath      string
	GaijiFile    string
	GaijiMapFile string
	EBType       int
	Hyoki        int
	Kana         int
	BookTitle    string
	BookDir      string
	BookType     string
	HTMLFile     string
}

// WriteProject writes the compiler project descriptor for a finished
// conversion. The search methods follow the key classes reported by the
// alignment pass.
func WriteProject(w io.Writer, cfg *Config, stats *align.Stats) error {
	data := ebsData{
		InPath:       cfg.BasePath,
		OutPath:      cfg.OutPath,
		GaijiFile:    gaijiFontFile,
		GaijiMapFile: gaijiMapFile,
		EBType:       cfg.EBType,
		BookTitle:    cfg.BookTitle,
		BookDir:      cfg.BookDir,
		BookType:     cfg.BookType,
		HTMLFile:     cfg.HTMLFile(),
	}
	if stats.Hyoki {
		data.Hyoki = 1
	}
	if stats.Kana || stats.AutoKana {
		data.Kana = 1
	}
	if err := ebsTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("writing project descriptor: %w", err)
	}
	return nil
}
