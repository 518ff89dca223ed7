package document

import (
	"context"

	"github.com/feichai0017/document-client/internal/models"
)

// DocumentStore owns the documents, the user's briefs and the push
// subscriptions of documents still processing.
type DocumentStore interface {
	FetchDocument(ctx context.Context, id string) (*FetchResult, error)
	FetchDocuments(ctx context.Context, ids []string) ([]*FetchResult, error)
	FetchDocumentBriefs(ctx context.Context) error
	GetDocument(id string) (models.Document, bool)
	GetBriefs() []models.DocumentBrief
	AddOrUpdateDocument(doc models.Document)
	AddOrUpdateDocumentBrief(brief models.DocumentBrief)
	WaitForDocument(ctx context.Context, id string) (models.Document, error)
	Subscriptions() []string
	CleanupWebSockets()
}

// FetchResult reports what a fetch did with the response.
type FetchResult struct {
	ID         string                  `json:"id"`
	Status     models.ProcessingStatus `json:"status"`
	Subscribed bool                    `json:"subscribed"`
}
