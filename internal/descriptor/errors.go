// Where: cli/internal/descriptor/errors.go
// What: Output-phase error type.
// Why: Separate generation failures (schema rejection, write errors) from
// parse and transform failures in batch reporting.
package descriptor

import "fmt"

// GenerationError marks a descriptor that cannot be validated or written.
// It is fatal to the one conversion producing the descriptor.
type GenerationError struct {
	File   string
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
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

func (e *GenerationError) Unwrap() error { return e.Err }
