package model

import "fmt"

// ParseError reports a quote document that could not be read
type ParseError struct {
	Source  Source
	Field   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s quote %s: %s (%v)", e.Source, e.Field, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s quote %s: %s", e.Source, e.Field, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a new parse error
func NewParseError(source Source, field, message string, cause error) *ParseError {
	return &ParseError{
		Source:  source,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ValidationError reports a rejected quote field or setting. Document
// names the quote when the field belongs to one.
type ValidationError struct {
	Document string
	Field    string
	Value    interface{}
	Rule     string
	Message  string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s (rule=%s)", e.Field, e.Message, e.Rule)
	if e.Value != nil {
		msg = fmt.Sprintf("invalid %s %v: %s (rule=%s)", e.Field, e.Value, e.Message, e.Rule)
	}
	if e.Document != "" {
		return fmt.Sprintf("quote %s: %s", e.Document, msg)
	}
	return msg
}

// ForDocument attaches the quote name to the error
func (e *ValidationError) ForDocument(name string) *ValidationError {
	e.Document = name
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Rule:    rule,
		Message: message,
	}
}

// ExtractionError reports quote fields that could not be extracted.
// Method is the extraction path that failed, such as "llm" or "text".
type ExtractionError struct {
	Method  string
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("quote extraction via %s: %s (%v)", e.Method, e.Message, e.Cause)
	}
	return fmt.Sprintf("quote extraction via %s: %s", e.Method, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// NewExtractionError creates a new extraction error
func NewExtractionError(method, message string, cause error) *ExtractionError {
	return &ExtractionError{
		Method:  method,
		Message: message,
		Cause:   cause,
	}
}
