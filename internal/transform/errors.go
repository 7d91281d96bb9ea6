// Where: cli/internal/transform/errors.go
// What: Transformation-phase error type.
// Why: Distinguish "cannot produce a valid descriptor" failures from parse
// and generation failures in batch reporting.
package transform

import "fmt"

// ConversionError marks a source app that cannot be transformed into a
// descriptor. It is fatal to the one conversion it belongs to.
type ConversionError struct {
	AppID  string
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		if msg != "" {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		} else {
			msg = e.Err.Error()
		}
	}
	if e.AppID != "" {
		return fmt.Sprintf("%s: %s", e.AppID, msg)
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Err }
