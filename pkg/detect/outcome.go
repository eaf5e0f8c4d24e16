package detect

import (
	"fmt"
	"time"
)

// Kind distinguishes the four results of a detection request.
type Kind int

const (
	// KindSuccess means at least one detection was returned.
	KindSuccess Kind = iota
	// KindEmpty means a valid response with no detections.
	KindEmpty
	// KindTransportFailure covers connection errors, cancellation and non-2xx statuses.
	KindTransportFailure
	// KindParseFailure means the 2xx response body could not be understood.
	KindParseFailure
)

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindEmpty:
		return "empty"
	case KindTransportFailure:
		return "transport_failure"
	case KindParseFailure:
		return "parse_failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is the result of one detection request. Kind is the only field
// callers should branch on.
type Outcome struct {
	Kind     Kind
	Response *Response // Set for KindSuccess and KindEmpty
	Reason   string    // Diagnostic text for failures; never shown to users
	Err      error     // Underlying error for failures
	Latency  time.Duration
}

// Success builds a KindSuccess outcome.
func Success(resp *Response) Outcome {
	return Outcome{Kind: KindSuccess, Response: resp}
}

// Empty builds a KindEmpty outcome.
func Empty(resp *Response) Outcome {
	return Outcome{Kind: KindEmpty, Response: resp}
}

// TransportFailure builds a KindTransportFailure outcome.
func TransportFailure(err error) Outcome {
	return Outcome{Kind: KindTransportFailure, Reason: err.Error(), Err: err}
}

// ParseFailure builds a KindParseFailure outcome.
func ParseFailure(err error) Outcome {
	return Outcome{Kind: KindParseFailure, Reason: err.Error(), Err: err}
}

// Detections returns the detections of a successful outcome, or nil.
func (o Outcome) Detections() []Detection {
	if o.Kind != KindSuccess || o.Response == nil {
		return nil
	}
	return o.Response.Detections
}
