package fragment

import "fmt"

// ParseError is returned when editor text cannot be turned into a fragment tree.
// Text is the offending input.
type ParseError struct {
	Text   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to parse markup: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to parse markup: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a tree editor message does not match the node schema
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid tree message: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid tree message: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
