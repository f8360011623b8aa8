package documents

import "time"

// Document represents an uploaded document owned by a user, together
// with everything the processing pipeline has derived from it.
type Document struct {
	ID           string
	OwnerID      string
	FileName     string // current display name, may change on rename
	UploadedName string // name the file was uploaded with
	StorageKey   string
	MimeType     string
	SizeBytes    int64

	Status        Status
	ExtractedText string

	Classification   string
	ConfidenceScore  int
	StructuredData   map[string]string
	Sentiment        string
	RouteDestination string

	Logs              []LogEntry
	ComparisonResults []ComparisonResult

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LogEntry is one line of a document's processing history.
type LogEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// ComparisonResult is the similarity of one target document to the
// source it was compared against.
type ComparisonResult struct {
	TargetID   string `json:"targetId"`
	TargetName string `json:"targetName"`
	Score      int    `json:"score"`
}

// AppendLog appends a history line. Timestamps stay monotonic even
// when entries land within the same clock tick.
func (d *Document) AppendLog(msg string) {
	at := time.Now().UTC()
	if n := len(d.Logs); n > 0 && !at.After(d.Logs[n-1].At) {
		at = d.Logs[n-1].At.Add(time.Millisecond)
	}
	d.Logs = append(d.Logs, LogEntry{At: at, Message: msg})
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	if d.StructuredData != nil {
		out.StructuredData = make(map[string]string, len(d.StructuredData))
		for k, v := range d.StructuredData {
			out.StructuredData[k] = v
		}
	}
	if d.Logs != nil {
		out.Logs = append([]LogEntry(nil), d.Logs...)
	}
	if d.ComparisonResults != nil {
		out.ComparisonResults = append([]ComparisonResult(nil), d.ComparisonResults...)
	}
	return out
}
