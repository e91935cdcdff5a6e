package entities

// ValidationResult collects the failures found while checking a request or
// options document. Valid is false as soon as one failure is added.
type ValidationResult struct {
	Errors []ValidationError
	Valid  bool
}

// ValidationError names the offending field (validator namespace or JSON
// pointer) and what rule it broke.
type ValidationError struct {
	Field   string
	Message string
}

// Fail records a failure.
func (r *ValidationResult) Fail(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}
