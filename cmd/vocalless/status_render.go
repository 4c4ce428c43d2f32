package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"vocalless/internal/jobs"
	"vocalless/internal/stages"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 14
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func jobStatusKind(status jobs.Status) statusKind {
	switch status {
	case jobs.StatusSuccess:
		return statusOK
	case jobs.StatusError:
		return statusError
	default:
		return statusInfo
	}
}

// stageLabel names the stage a job is in, derived from its progress text.
func stageLabel(job jobs.Job) string {
	switch job.Status {
	case jobs.StatusSuccess:
		return "Done"
	case jobs.StatusError:
		return "Failed"
	}
	if name, ok := stages.FromProgress(job.Progress); ok {
		return name.Label()
	}
	return "Queued"
}

// renderJob formats a job as indented status lines.
func renderJob(job jobs.Job, colorize bool) []string {
	lines := []string{
		renderStatusLine("Job", jobStatusKind(job.Status), job.ID, colorize),
		renderStatusLine("Stage", statusInfo, stageLabel(job), colorize),
	}
	if job.SourceURL != "" {
		lines = append(lines, renderStatusLine("Source", statusInfo, job.SourceURL, colorize))
	}
	switch job.Status {
	case jobs.StatusSuccess:
		lines = append(lines, renderStatusLine("Output", statusOK, job.OutputPath, colorize))
	case jobs.StatusError:
		lines = append(lines, renderStatusLine("Error", statusError, firstLine(job.ErrorMessage), colorize))
	default:
		lines = append(lines, renderStatusLine("Progress", statusInfo, job.Progress, colorize))
	}
	return lines
}

func firstLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		return text[:i] + " ..."
	}
	return text
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
