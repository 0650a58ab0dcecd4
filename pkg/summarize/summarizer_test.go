package summarize

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/scenescan/pkg/types"
)

type stubClient struct {
	response string
	err      error
	prompts  []string
}

func (s *stubClient) QueryImage(ctx context.Context, model, prompt, imgB64 string) (string, error) {
	return "", fmt.Errorf("unexpected image query")
}

func (s *stubClient) Generate(ctx context.Context, model, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestSummarize(t *testing.T) {
	stub := &stubClient{response: "  A stop sign warning drivers.  \n"}
	sum := New(stub, "test-model")

	got, err := sum.Summarize(context.Background(), "STOP AHEAD")
	require.NoError(t, err)
	assert.Equal(t, "A stop sign warning drivers.", got)
	require.Len(t, stub.prompts, 1)
	assert.Contains(t, stub.prompts[0], "STOP AHEAD")
}

func TestEnrichRecords(t *testing.T) {
	stub := &stubClient{response: "A short summary."}
	sum := New(stub, "test-model")

	records := []types.ObjectRecord{
		{ImageID: "sign_object_0.png", Texts: "EXIT LEFT"},
		{ImageID: "cat_object_0.png", Texts: types.NoTextSentinel},
		{ImageID: "dog_object_0.png"},
	}
	records = sum.EnrichRecords(context.Background(), records)

	require.NotNil(t, records[0].Summary)
	assert.Equal(t, "A short summary.", *records[0].Summary)
	assert.True(t, records[0].HasSummary())

	// Sentinel text and empty text both get the no-summary sentinel.
	require.NotNil(t, records[1].Summary)
	assert.Equal(t, types.NoSummarySentinel, *records[1].Summary)
	assert.False(t, records[1].HasSummary())
	require.NotNil(t, records[2].Summary)
	assert.Equal(t, types.NoSummarySentinel, *records[2].Summary)

	// Only the record with real text reached the model.
	assert.Len(t, stub.prompts, 1)
}

func TestEnrichRecordsModelFailure(t *testing.T) {
	stub := &stubClient{err: fmt.Errorf("backend unavailable")}
	sum := New(stub, "test-model")

	records := sum.EnrichRecords(context.Background(), []types.ObjectRecord{
		{ImageID: "sign_object_0.png", Texts: "EXIT"},
	})

	// A failed model call leaves the summary null rather than aborting.
	assert.Nil(t, records[0].Summary)
}
