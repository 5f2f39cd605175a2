package models

import "time"

// DocumentType is the supported set of uploaded file kinds. The core only
// ever sees a capped text preview; parsing is delegated to an external
// collaborator.
type DocumentType string

const (
	DocumentPDF  DocumentType = "pdf"
	DocumentCSV  DocumentType = "csv"
	DocumentXLSX DocumentType = "xlsx"
)

// previewCapByType bounds how much of a document's content is kept
// in-session, varying by how dense the type's content tends to be.
var previewCapByType = map[DocumentType]int{
	DocumentPDF:  8000,
	DocumentCSV:  4000,
	DocumentXLSX: 4000,
}

// DefaultPreviewCap is used for unrecognized types.
const DefaultPreviewCap = 4000

// PreviewCap returns the content preview cap for a document type.
func PreviewCap(t DocumentType) int {
	if cap, ok := previewCapByType[t]; ok {
		return cap
	}
	return DefaultPreviewCap
}

// UploadedDocument is bound to a session, never leaves it, and is kept at
// most MaxDocumentsPerSession per session (LRU).
type UploadedDocument struct {
	Filename    string         `json:"filename"`
	Type        DocumentType   `json:"type"`
	Content     string         `json:"content"`      // preview, capped by Type
	FullLength  int            `json:"full_length"`
	Truncated   bool           `json:"truncated"`
	Metadata    map[string]any `json:"metadata,omitempty"` // pages/rows/sheet names
	UploadedAt  time.Time      `json:"uploaded_at"`
}

// MaxDocumentsPerSession bounds the per-session document set (spec: ~3, LRU).
const MaxDocumentsPerSession = 3

// NewUploadedDocument builds a document with its preview truncated per Type.
func NewUploadedDocument(filename string, docType DocumentType, fullContent string, metadata map[string]any) UploadedDocument {
	cap := PreviewCap(docType)
	truncated := false
	content := fullContent
	if len(content) > cap {
		content = content[:cap]
		truncated = true
	}
	return UploadedDocument{
		Filename:   filename,
		Type:       docType,
		Content:    content,
		FullLength: len(fullContent),
		Truncated:  truncated,
		Metadata:   metadata,
		UploadedAt: time.Now(),
	}
}
