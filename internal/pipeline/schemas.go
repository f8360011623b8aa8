package pipeline

// structuredSchemas maps a classification label to the fields the
// structured-extraction stage asks for. Labels without an entry skip
// the provider call entirely.
var structuredSchemas = map[string][]string{
	"Invoice": {
		"invoiceNumber",
		"vendorName",
		"customerName",
		"invoiceDate",
		"dueDate",
		"totalAmount",
	},
	"Contract": {
		"contractTitle",
		"partyA",
		"partyB",
		"effectiveDate",
		"term",
	},
}

func schemaFor(label string) ([]string, bool) {
	fields, ok := structuredSchemas[label]
	return fields, ok
}
