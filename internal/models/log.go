package models

// LogEntry is one audit record of a committed change to a document.
type LogEntry struct {
	ID        string         `json:"iuid"`
	DocID     string         `json:"docid"`
	DocType   string         `json:"doctype"`
	Changed   map[string]any `json:"changed"`
	Account   string         `json:"account,omitempty"`
	Timestamp string         `json:"timestamp"`
}
