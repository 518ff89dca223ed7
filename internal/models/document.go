package models

// ProcessingStatus is the server-side processing state of a document.
type ProcessingStatus string

const (
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s ProcessingStatus) Valid() bool {
	return s == StatusProcessing || s == StatusCompleted
}

// Block is a sub-section of a document.
type Block struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Document is a resolved content unit. A completed document is assumed
// fully populated; a processing one makes no promise about Blocks or Summary.
type Document struct {
	ID               string           `json:"id"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	Title            string           `json:"title"`
	Summary          string           `json:"summary"`
	Keywords         *string          `json:"keywords,omitempty"`
	Tags             []string         `json:"tags,omitempty"`
	Recommendations  []string         `json:"recommendations,omitempty"`
	Blocks           []Block          `json:"blocks"`
}

// Completed reports whether the document finished processing.
func (d Document) Completed() bool {
	return d.ProcessingStatus == StatusCompleted
}

// Brief returns the listing summary of d.
func (d Document) Brief() DocumentBrief {
	return DocumentBrief{
		ID:               d.ID,
		Title:            d.Title,
		ProcessingStatus: d.ProcessingStatus,
	}
}

// DocumentBrief is the lightweight listing form of a document.
type DocumentBrief struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	ProcessingStatus ProcessingStatus `json:"processing_status"`
}

// DocumentEnvelope is the response of GET /api/v1/documents/{id}: either a
// completed document or a processing marker carrying the push channel address.
type DocumentEnvelope struct {
	Document
	WsURL string `json:"ws_url,omitempty"`
}

// BriefList is the response of GET /api/v1/documents/?user_id={id}.
type BriefList struct {
	Total   int             `json:"total,omitempty"`
	Results []DocumentBrief `json:"results"`
}
