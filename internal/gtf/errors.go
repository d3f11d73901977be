package gtf

import "fmt"

// MalformedLineError reports a line with too few columns or unparseable coordinates.
type MalformedLineError struct {
	Line    int
	Message string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("gtf parse error at line %d: %s", e.Line, e.Message)
}

// MalformedAttributeError reports an attribute token that is not a key/value pair.
// Line is zero when the error comes from ParseAttributes directly.
type MalformedAttributeError struct {
	Line  int
	Token string
}

func (e *MalformedAttributeError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("gtf malformed attribute %q", e.Token)
	}
	return fmt.Sprintf("gtf malformed attribute at line %d: %q", e.Line, e.Token)
}
