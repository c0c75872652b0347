package validation

import "strings"

// Result collects blocking errors and non-blocking warnings from a validation pass
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newResult(errors, warnings []string) Result {
	return Result{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
	}
}

func (r Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// ErrorMessage joins all errors with "; "
func (r Result) ErrorMessage() string {
	return strings.Join(r.Errors, "; ")
}

// WarningMessage joins all warnings with "; "
func (r Result) WarningMessage() string {
	return strings.Join(r.Warnings, "; ")
}
