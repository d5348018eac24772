package codec

import "time"

// Timestamp formats accepted on decode (in order of priority). The canonical
// wire form is TimestampLayout; the rest tolerate foreign snapshots written
// with other precision.
var supportedTimestampFormats = []string{
	TimestampLayout,                  // canonical millisecond UTC
	time.RFC3339,                     // "2006-01-02T15:04:05Z07:00"
	time.RFC3339Nano,                 // "2006-01-02T15:04:05.999999999Z07:00"
	"2006-01-02T15:04:05Z",           // ISO 8601 UTC, no fraction
	"2006-01-02T15:04:05.000000Z",    // microseconds
	"2006-01-02T15:04:05.000000000Z", // nanoseconds
}

// ParseTimestamp parses a snapshot timestamp string, trying each supported
// format in order.
func ParseTimestamp(s string) (time.Time, error) {
	for _, format := range supportedTimestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &TimestampParseError{Input: s}
}

// TimestampParseError represents a timestamp parsing error
type TimestampParseError struct {
	Input string
}

func (e *TimestampParseError) Error() string {
	return "cannot parse '" + e.Input + "' as timestamp"
}
