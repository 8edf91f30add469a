package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"llstore/internal/ipc"
	"llstore/internal/task"
)

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// shortID trims a task uuid for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func taskLabel(t *ipc.TaskItem) string {
	name := t.App.DisplayName()
	if name == "" {
		return t.AppID
	}
	return name
}

func formatStatus(status task.Status, colorize bool) string {
	label := string(status)
	if !colorize {
		return label
	}
	switch status {
	case task.StatusSuccess:
		return text.FgGreen.Sprint(label)
	case task.StatusFailed:
		return text.FgRed.Sprint(label)
	case task.StatusInstalling:
		return text.FgCyan.Sprint(label)
	default:
		return label
	}
}

func formatProgress(t *ipc.TaskItem) string {
	switch t.Status {
	case task.StatusSuccess:
		return "100%"
	case task.StatusPending:
		return "-"
	default:
		return fmt.Sprintf("%d%%", t.Progress)
	}
}

func taskMessage(t *ipc.TaskItem) string {
	if t.Status == task.StatusFailed && t.ErrorMessage != "" {
		return t.ErrorMessage
	}
	return strings.TrimSpace(t.Message)
}
