package gene

import (
	"fmt"

	"github.com/inodb/dcc-import/internal/gtf"
)

// MalformedTranscriptError reports a transcript whose coding region cannot be resolved.
type MalformedTranscriptError struct {
	TranscriptID string
	Message      string
}

func (e *MalformedTranscriptError) Error() string {
	return fmt.Sprintf("malformed transcript %s: %s", e.TranscriptID, e.Message)
}

// ContextError reports a record that arrived in a state that cannot accept it,
// such as an exon before any transcript.
type ContextError struct {
	Line   int
	Kind   gtf.Kind
	State  State
	Reason string
}

func (e *ContextError) Error() string {
	msg := fmt.Sprintf("unexpected %s record at line %d in state %s", e.Kind, e.Line, e.State)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}
