// Where: cli/internal/casaos/errors.go
// What: Parse-phase error type.
// Why: Distinguish structurally invalid source documents from downstream
// transformation and generation failures.
package casaos

import "fmt"

// ParseError marks a source document as structurally invalid. It is fatal
// to the one conversion attempting to read the document.
type ParseError struct {
	File   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		if msg != "" {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		} else {
			msg = e.Err.Error()
		}
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }
