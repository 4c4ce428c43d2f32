package stages

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Name identifies a pipeline stage.
type Name string

const (
	Lookup    Name = "lookup"
	Download  Name = "download"
	Transcode Name = "transcode"
	Separate  Name = "separate"
)

// Order lists the stages in execution order.
var Order = []Name{Lookup, Download, Transcode, Separate}

// Process descriptions shown in job progress and error messages.
const (
	DescLookup    = "getting source video ID"
	DescDownload  = "downloading the source audio"
	DescTranscode = "converting to wav"
	DescSeparate  = "running the vocal removal process"
)

var descriptions = map[Name]string{
	Lookup:    DescLookup,
	Download:  DescDownload,
	Transcode: DescTranscode,
	Separate:  DescSeparate,
}

var titleCaser = cases.Title(language.English)

// Description returns the process description for a stage.
func (n Name) Description() string {
	return descriptions[n]
}

// Label renders a stage name for display.
func (n Name) Label() string {
	return titleCaser.String(string(n))
}

// FromProgress infers the stage a pending job is in from its progress text.
func FromProgress(progress string) (Name, bool) {
	for _, name := range Order {
		if strings.HasPrefix(progress, descriptions[name]) {
			return name, true
		}
	}
	return "", false
}
