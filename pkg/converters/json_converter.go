package converters

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/feichai0017/document-client/internal/models"
	"github.com/feichai0017/document-client/internal/utils/validator"
)

// ErrMalformed is wrapped by every decoding or validation failure.
var ErrMalformed = errors.New("malformed payload")

// DocumentConverter turns raw payloads from the document service into models.
type DocumentConverter interface {
	DecodeEnvelope(data []byte) (*models.DocumentEnvelope, error)
	DecodeDocument(data []byte) (*models.Document, error)
	DecodeBriefs(data []byte) ([]models.DocumentBrief, error)
}

// JSONConverter decodes JSON payloads and validates them.
type JSONConverter struct {
	validator *validator.DocumentValidator
}

var _ DocumentConverter = (*JSONConverter)(nil)

func NewJSONConverter(v *validator.DocumentValidator) *JSONConverter {
	if v == nil {
		v = validator.NewDocumentValidator(nil)
	}
	return &JSONConverter{validator: v}
}

// DecodeEnvelope decodes a response of GET /api/v1/documents/{id}.
func (c *JSONConverter) DecodeEnvelope(data []byte) (*models.DocumentEnvelope, error) {
	var env models.DocumentEnvelope
	if err := unmarshal(data, &env); err != nil {
		return nil, err
	}
	if err := c.validator.ValidateEnvelope(&env).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &env, nil
}

// DecodeDocument decodes a document pushed over a push channel.
func (c *JSONConverter) DecodeDocument(data []byte) (*models.Document, error) {
	var doc models.Document
	if err := unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if err := c.validator.ValidateDocument(&doc).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &doc, nil
}

// DecodeBriefs decodes a response of GET /api/v1/documents/?user_id={id}.
// The results key must be present; an empty list is valid.
func (c *JSONConverter) DecodeBriefs(data []byte) ([]models.DocumentBrief, error) {
	var list struct {
		Total   int                     `json:"total"`
		Results *[]models.DocumentBrief `json:"results"`
	}
	if err := unmarshal(data, &list); err != nil {
		return nil, err
	}
	if list.Results == nil {
		return nil, fmt.Errorf("%w: results is missing", ErrMalformed)
	}
	if err := c.validator.ValidateBriefs(*list.Results).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return *list.Results, nil
}

func unmarshal(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: empty body", ErrMalformed)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
