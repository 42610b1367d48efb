package logging

// LogEntry represents a structured log record.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Search-run correlation
	RunID      string // strategy run identifier
	Generation int    // -1 when not inside a generation loop

	// General structured data
	Fields map[string]interface{}
}
