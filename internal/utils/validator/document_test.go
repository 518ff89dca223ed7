package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/document-client/internal/models"
)

func TestValidateEnvelope_Completed(t *testing.T) {
	v := NewDocumentValidator(nil)

	result := v.ValidateEnvelope(&models.DocumentEnvelope{
		Document: models.Document{ID: "doc-1", ProcessingStatus: models.StatusCompleted, Title: "T"},
	})

	assert.True(t, result.IsValid)
	assert.NoError(t, result.Err())
}

func TestValidateEnvelope_ProcessingNeedsWsURL(t *testing.T) {
	v := NewDocumentValidator(nil)

	result := v.ValidateEnvelope(&models.DocumentEnvelope{
		Document: models.Document{ProcessingStatus: models.StatusProcessing},
	})

	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "MISSING_WS_URL", result.Errors[0].Code)
	assert.True(t, errors.Is(result.Err(), ErrInvalid))
}

func TestValidateEnvelope_ProcessingSchemes(t *testing.T) {
	v := NewDocumentValidator(nil)

	ok := v.ValidateEnvelope(&models.DocumentEnvelope{
		Document: models.Document{ProcessingStatus: models.StatusProcessing},
		WsURL:    "wss://x/doc-1",
	})
	assert.True(t, ok.IsValid)

	bad := v.ValidateEnvelope(&models.DocumentEnvelope{
		Document: models.Document{ProcessingStatus: models.StatusProcessing},
		WsURL:    "ftp://x/doc-1",
	})
	require.False(t, bad.IsValid)
	assert.Equal(t, "INVALID_WS_URL", bad.Errors[0].Code)

	open := NewDocumentValidator(&ValidatorConfig{})
	assert.True(t, open.ValidateEnvelope(&models.DocumentEnvelope{
		Document: models.Document{ProcessingStatus: models.StatusProcessing},
		WsURL:    "http://x/doc-1",
	}).IsValid)
}

func TestValidateEnvelope_UnknownStatus(t *testing.T) {
	v := NewDocumentValidator(nil)

	result := v.ValidateEnvelope(&models.DocumentEnvelope{
		Document: models.Document{ID: "doc-1", ProcessingStatus: "failed"},
	})

	require.False(t, result.IsValid)
	assert.Equal(t, "INVALID_STATUS", result.Errors[0].Code)

	assert.False(t, v.ValidateEnvelope(nil).IsValid)
}

func TestValidateDocument_Limits(t *testing.T) {
	v := NewDocumentValidator(&ValidatorConfig{MaxBlocks: 1, MaxTags: 1})

	result := v.ValidateDocument(&models.Document{
		ProcessingStatus: models.StatusCompleted,
		Tags:             []string{"a", "b"},
		Blocks:           []models.Block{{Title: "1"}, {Title: "2"}},
	})

	require.False(t, result.IsValid)
	codes := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		codes = append(codes, e.Code)
	}
	assert.ElementsMatch(t, []string{"MISSING_ID", "TOO_MANY_BLOCKS", "TOO_MANY_TAGS"}, codes)
	assert.Contains(t, result.Err().Error(), "id: id is required")
}

func TestValidateBriefs(t *testing.T) {
	v := NewDocumentValidator(nil)

	assert.True(t, v.ValidateBriefs(nil).IsValid)
	assert.True(t, v.ValidateBriefs([]models.DocumentBrief{
		{ID: "doc-1", ProcessingStatus: models.StatusProcessing},
	}).IsValid)

	result := v.ValidateBriefs([]models.DocumentBrief{
		{ID: "doc-1", ProcessingStatus: models.StatusCompleted},
		{ProcessingStatus: "queued"},
	})
	require.False(t, result.IsValid)
	assert.Len(t, result.Errors, 2)
	assert.Equal(t, "results[1].id", result.Errors[0].Field)
}
