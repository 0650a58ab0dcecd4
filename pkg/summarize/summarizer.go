// Package summarize implements the summarization stage: records carrying
// real extracted text get a short model-generated summary, everything
// else gets the no-summary sentinel.
package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/menta2k/scenescan/pkg/client"
	"github.com/menta2k/scenescan/pkg/types"
)

const promptTemplate = `Summarize the following text in one or two short
sentences. Respond with the summary only, no preamble.

Text:
%s`

// Summarizer condenses extracted text into short summaries.
type Summarizer struct {
	client client.ModelClient
	model  string
}

// New creates a Summarizer using the given chat backend and model name.
func New(c client.ModelClient, model string) *Summarizer {
	return &Summarizer{client: c, model: model}
}

// Summarize condenses a non-empty text into a short summary.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	raw, err := s.client.Generate(ctx, s.model, fmt.Sprintf(promptTemplate, text))
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	return strings.TrimSpace(raw), nil
}

// EnrichRecords fills the summary field on every record. Records without
// real text get the no-summary sentinel; a failed model call leaves the
// summary null (logged, not raised). The input slice is returned with its
// records updated.
func (s *Summarizer) EnrichRecords(ctx context.Context, records []types.ObjectRecord) []types.ObjectRecord {
	for idx := range records {
		rec := &records[idx]
		if !rec.HasText() {
			sentinel := types.NoSummarySentinel
			rec.Summary = &sentinel
			continue
		}

		summary, err := s.Summarize(ctx, rec.Texts)
		if err != nil {
			slog.Warn("error summarizing text, leaving summary empty", "object", rec.ImageID, "error", err)
			rec.Summary = nil
			continue
		}
		rec.Summary = &summary
	}
	return records
}
