// Package record recovers timer records from a corrupted stream of
// concatenated JSON objects.
package record

// TimerRecord is one recovered timer measurement.
type TimerRecord struct {
	Name     string
	GroupKey string
	Elapsed  uint64
	Metadata Payload
}

// Failure describes a candidate that could not be turned into a TimerRecord.
// Field names follow the failure log format.
type Failure struct {
	Line  int    `json:"line"`
	Entry string `json:"entry"`
	Cause string `json:"cause"`
}

// Candidate is a piece of the raw input hypothesized to be one JSON object.
type Candidate struct {
	Index int
	Text  string
}

// Payload holds the fields of a timer record that are not interpreted.
type Payload map[string]interface{}

// Snippet returns s truncated to maxLength bytes, useful for logging raw entries.
func Snippet(s string, maxLength int) string {
	if maxLength <= 0 {
		return "..."
	}
	if len(s) > maxLength {
		return s[:maxLength] + "..."
	}
	return s
}
