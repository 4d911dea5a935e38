package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"reelsmith/internal/api"
)

func buildJobListRows(jobs []api.Job) [][]string {
	if len(jobs) == 0 {
		return nil
	}
	sorted := make([]api.Job, len(jobs))
	copy(sorted, jobs)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseJobTime(sorted[i].CreatedAt)
		tj := parseJobTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, job := range sorted {
		rows = append(rows, []string{
			shortUUID(job.UUID),
			truncatePrompt(job.Prompt, 40),
			formatStatusLabel(job.Status),
			fmt.Sprintf("%.0f%%", job.Progress.Percent),
			formatDisplayTime(job.CreatedAt),
		})
	}
	return rows
}

func buildJobStatsRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildSegmentRows(segments []api.Segment) [][]string {
	rows := make([][]string, 0, len(segments))
	for _, segment := range segments {
		window := fmt.Sprintf("%d-%ds", segment.StartSeconds, segment.EndSeconds)
		rows = append(rows, []string{
			fmt.Sprintf("%d", segment.Index),
			window,
			formatStatusLabel(segment.Status),
			truncatePrompt(segment.Text, 50),
		})
	}
	return rows
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func truncatePrompt(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}

func shortUUID(value string) string {
	if idx := strings.IndexByte(value, '-'); idx > 0 {
		return value[:idx]
	}
	return value
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func parseJobTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
