package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dorinvancea/pricewatch/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	formatRunsList(&buf, []model.RunSummary{{
		Category:   "sneakers",
		Status:     model.FetchOK,
		Checked:    120,
		Hits:       3,
		Alerted:    2,
		Missing:    4,
		DurationMS: 1500,
		StartedAt:  time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}})

	out := buf.String()
	assert.Contains(t, out, "CATEGORY")
	assert.Contains(t, out, "sneakers")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "1500ms")
}

func TestRootHasCommands(t *testing.T) {
	t.Parallel()

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"check", "baseline", "codes", "serve", "runs"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
