package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/daydream-data/domainwatch/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:           "run-1",
			Source:       model.RunSourceCSV,
			DomainsTotal: 10,
			Status:       model.RunStatusComplete,
			Result:       &model.RunResult{DomainsProcessed: 10, DurationMS: 4200},
			CreatedAt:    created,
		},
		{
			ID:           "run-2",
			Source:       model.RunSourceFeed,
			DomainsTotal: 3,
			Status:       model.RunStatusRunning,
			CreatedAt:    created.Add(time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)
	out := buf.String()

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "csv")
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "4.2s")
	// Runs without a result show a duration placeholder.
	assert.Contains(t, out, "-")
}
