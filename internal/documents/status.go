package documents

// Status is a document's position in the processing lifecycle.
type Status string

const (
	StatusIngested              Status = "Ingested"
	StatusExtractionPending     Status = "Extraction_Pending"
	StatusExtracted             Status = "Extracted"
	StatusClassificationPending Status = "Classification_Pending"
	StatusClassified            Status = "Classified"
	StatusDataExtractionPending Status = "Data_Extraction_Pending"
	StatusDataExtracted         Status = "Data_Extracted"
	StatusSentimentPending      Status = "Sentiment_Pending"
	StatusAnalyzed              Status = "Analyzed"
	StatusRenamingPending       Status = "Renaming_Pending"
	StatusRenamed               Status = "Renamed"
	StatusRoutingPending        Status = "Routing_Pending"
	StatusRouted                Status = "Routed"
	StatusFailed                Status = "Failed"
)

// SentimentNotAvailable marks a document whose sentiment stage could
// not produce a result.
const SentimentNotAvailable = "NotAvailable"

// forwardOrder is the fixed forward path through the lifecycle.
// Failed sits outside it and is reachable from any non-terminal state.
var forwardOrder = []Status{
	StatusIngested,
	StatusExtractionPending,
	StatusExtracted,
	StatusClassificationPending,
	StatusClassified,
	StatusDataExtractionPending,
	StatusDataExtracted,
	StatusSentimentPending,
	StatusAnalyzed,
	StatusRenamingPending,
	StatusRenamed,
	StatusRoutingPending,
	StatusRouted,
}

// Rank returns the position of s on the forward path, or -1 for
// Failed and unknown values.
func (s Status) Rank() int {
	for i, st := range forwardOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is a member of the lifecycle enum.
func (s Status) Valid() bool {
	return s == StatusFailed || s.Rank() >= 0
}

// Terminal reports whether no further stage may run for s.
func (s Status) Terminal() bool {
	return s == StatusRouted || s == StatusFailed
}
