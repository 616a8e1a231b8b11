package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ytget/yt-mashup/internal/model"
	"github.com/ytget/yt-mashup/internal/pipeline"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// renderSummary formats the per-video outcome of a run as a table.
func renderSummary(report *pipeline.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(fmt.Sprintf("%s mashup (%d of %d videos)", titleCaser.String(report.Performer), len(report.Clips), report.Requested))
	tw.AppendHeader(table.Row{"#", "Video", "File", "Status", "Attempts", "Length", "Size", "Time", "Clip"})

	for _, task := range report.Tasks {
		index, file, clipLength := "-", "-", "-"
		if task.Index > 0 {
			index = strconv.Itoa(task.Index)
			file = task.GetDisplayName()
			if clip, ok := report.ClipFor(task.Index); ok {
				clipLength = model.FormatClock(clip.Duration())
			}
		}
		size := "-"
		if task.FileSize > 0 {
			size = humanize.Bytes(uint64(task.FileSize))
		}
		tw.AppendRow(table.Row{
			index, task.VideoID, file, statusLabel(task), task.Attempts,
			task.GetDurationString(), size, model.FormatClock(task.Elapsed()), clipLength,
		})
	}

	outputSize, outputName := "-", "-"
	if report.Output.Size > 0 {
		outputSize = humanize.Bytes(uint64(report.Output.Size))
	}
	if report.Output.Path != "" {
		outputName = filepath.Base(report.Output.Path)
	}
	tw.AppendFooter(table.Row{
		"", "Output", outputName, "", "",
		"", outputSize, model.FormatClock(report.Elapsed()), model.FormatClock(report.Output.Duration()),
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
	})
	return tw.Render()
}

func statusLabel(task *model.DownloadTask) string {
	label := task.Status.String()
	if task.Status == model.TaskStatusSkipped && task.LastError != "" {
		reason := task.LastError
		if i := strings.LastIndex(reason, ": "); i >= 0 {
			reason = reason[i+2:]
		}
		label += " (" + truncate(reason, 40) + ")"
	}
	return label
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
