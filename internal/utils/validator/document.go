// internal/utils/validator/document.go
package validator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/feichai0017/document-client/internal/models"
)

// ErrInvalid is wrapped by every error returned from ValidationResult.Err.
var ErrInvalid = errors.New("invalid payload")

// DocumentValidator checks payloads received from the document service.
type DocumentValidator struct {
	config *ValidatorConfig
}

// ValidatorConfig 验证器配置
type ValidatorConfig struct {
	AllowedSchemes []string // schemes accepted for ws_url
	MaxBlocks      int      // 0 means unlimited
	MaxTags        int      // 0 means unlimited
}

// ValidationResult 验证结果
type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// ValidationError 验证错误
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e ValidationError) String() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Err returns nil for a valid result, otherwise an error wrapping ErrInvalid.
func (r *ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func (r *ValidationResult) add(code, field, message string) {
	r.IsValid = false
	r.Errors = append(r.Errors, ValidationError{Code: code, Field: field, Message: message})
}

// NewDocumentValidator 创建新的文档验证器
func NewDocumentValidator(config *ValidatorConfig) *DocumentValidator {
	if config == nil {
		config = &ValidatorConfig{
			AllowedSchemes: []string{"ws", "wss"},
		}
	}
	return &DocumentValidator{config: config}
}

// ValidateEnvelope validates a response of the document endpoint. A
// processing envelope needs a usable ws_url; a completed one must pass
// ValidateDocument.
func (v *DocumentValidator) ValidateEnvelope(env *models.DocumentEnvelope) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	if env == nil {
		result.add("EMPTY_RESPONSE", "", "response is empty")
		return result
	}

	switch env.ProcessingStatus {
	case models.StatusProcessing:
		v.validateWsURL(result, env.WsURL)
	case models.StatusCompleted:
		v.validateDocument(result, &env.Document)
	default:
		result.add("INVALID_STATUS", "processing_status",
			fmt.Sprintf("unknown processing status %q", env.ProcessingStatus))
	}

	return result
}

// ValidateDocument validates a document received over HTTP or a push channel.
func (v *DocumentValidator) ValidateDocument(doc *models.Document) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	if doc == nil {
		result.add("EMPTY_DOCUMENT", "", "document is empty")
		return result
	}
	v.validateDocument(result, doc)
	return result
}

// ValidateBriefs validates a brief listing.
func (v *DocumentValidator) ValidateBriefs(briefs []models.DocumentBrief) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	for i, b := range briefs {
		field := fmt.Sprintf("results[%d]", i)
		if b.ID == "" {
			result.add("MISSING_ID", field+".id", "id is required")
		}
		if !b.ProcessingStatus.Valid() {
			result.add("INVALID_STATUS", field+".processing_status",
				fmt.Sprintf("unknown processing status %q", b.ProcessingStatus))
		}
	}
	return result
}

func (v *DocumentValidator) validateDocument(result *ValidationResult, doc *models.Document) {
	if doc.ID == "" {
		result.add("MISSING_ID", "id", "id is required")
	}
	if !doc.ProcessingStatus.Valid() {
		result.add("INVALID_STATUS", "processing_status",
			fmt.Sprintf("unknown processing status %q", doc.ProcessingStatus))
	}
	if v.config.MaxBlocks > 0 && len(doc.Blocks) > v.config.MaxBlocks {
		result.add("TOO_MANY_BLOCKS", "blocks",
			fmt.Sprintf("%d blocks exceeds limit of %d", len(doc.Blocks), v.config.MaxBlocks))
	}
	if v.config.MaxTags > 0 && len(doc.Tags) > v.config.MaxTags {
		result.add("TOO_MANY_TAGS", "tags",
			fmt.Sprintf("%d tags exceeds limit of %d", len(doc.Tags), v.config.MaxTags))
	}
}

func (v *DocumentValidator) validateWsURL(result *ValidationResult, raw string) {
	if raw == "" {
		result.add("MISSING_WS_URL", "ws_url", "processing response carries no ws_url")
		return
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		result.add("INVALID_WS_URL", "ws_url", fmt.Sprintf("cannot parse %q", raw))
		return
	}

	if len(v.config.AllowedSchemes) == 0 {
		return
	}
	for _, s := range v.config.AllowedSchemes {
		if strings.EqualFold(s, u.Scheme) {
			return
		}
	}
	result.add("INVALID_WS_URL", "ws_url", fmt.Sprintf("scheme %q is not allowed", u.Scheme))
}
