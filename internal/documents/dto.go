package documents

import "time"

// DocumentResponse is the outward-facing representation of a document.
type DocumentResponse struct {
	DocumentID        string             `json:"documentId"`
	FileName          string             `json:"fileName"`
	UploadedName      string             `json:"uploadedName"`
	MimeType          string             `json:"mimeType"`
	SizeBytes         int64              `json:"sizeBytes"`
	Status            string             `json:"status"`
	Classification    string             `json:"classification,omitempty"`
	ConfidenceScore   int                `json:"confidenceScore"`
	StructuredData    map[string]string  `json:"structuredData,omitempty"`
	Sentiment         string             `json:"sentiment,omitempty"`
	RouteDestination  string             `json:"routeDestination,omitempty"`
	Logs              []LogEntry         `json:"logs"`
	ComparisonResults []ComparisonResult `json:"comparisonResults"`
	UploadedAt        time.Time          `json:"uploadedAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

// ToResponse converts a document to its outward representation.
func ToResponse(doc Document) DocumentResponse {
	logs := doc.Logs
	if logs == nil {
		logs = []LogEntry{}
	}
	comparisons := doc.ComparisonResults
	if comparisons == nil {
		comparisons = []ComparisonResult{}
	}
	return DocumentResponse{
		DocumentID:        doc.ID,
		FileName:          doc.FileName,
		UploadedName:      doc.UploadedName,
		MimeType:          doc.MimeType,
		SizeBytes:         doc.SizeBytes,
		Status:            string(doc.Status),
		Classification:    doc.Classification,
		ConfidenceScore:   doc.ConfidenceScore,
		StructuredData:    doc.StructuredData,
		Sentiment:         doc.Sentiment,
		RouteDestination:  doc.RouteDestination,
		Logs:              logs,
		ComparisonResults: comparisons,
		UploadedAt:        doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
}
