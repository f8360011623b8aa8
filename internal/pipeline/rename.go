package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"

	"docflow-backend/internal/documents"
	"docflow-backend/internal/shared/util"
)

// ErrNoRenameRule marks a classification with no display-name template.
var ErrNoRenameRule = errors.New("no rename rule for classification")

// Renamer synthesizes a new display name from a processed document.
type Renamer interface {
	NewName(doc documents.Document) (string, error)
}

type renameRule struct {
	prefix string
	fields []string // structured-data keys joined into the name
}

// renameRules maps classification labels to display-name templates.
var renameRules = map[string]renameRule{
	"Invoice":  {prefix: "Invoice", fields: []string{"vendorName", "invoiceDate"}},
	"Contract": {prefix: "Contract", fields: []string{"partyA", "effectiveDate"}},
}

// TemplateRenamer builds names like Invoice_Acme_2026-01-15.pdf from
// the document's structured data.
type TemplateRenamer struct{}

func (TemplateRenamer) NewName(doc documents.Document) (string, error) {
	rule, ok := renameRules[doc.Classification]
	if !ok {
		return "", ErrNoRenameRule
	}

	name := rule.prefix
	for _, field := range rule.fields {
		value := util.SanitizeDisplayName(doc.StructuredData[field])
		if value == "" {
			return "", fmt.Errorf("missing structured field %q", field)
		}
		name += "_" + value
	}
	return name + filepath.Ext(doc.FileName), nil
}

var _ Renamer = TemplateRenamer{}
