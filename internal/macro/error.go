package macro

import "fmt"

// Error is raised by macro expansion and by the small tree-walking
// evaluator that runs macro bodies (spec §4.2, §7 "uniform error
// surface... kind, message, optional location").
type Error struct {
	Message string
	Form    fmt.Stringer
}

func (e *Error) Error() string {
	if e.Form != nil {
		return fmt.Sprintf("macro error: %s (in %s)", e.Message, e.Form)
	}
	return "macro error: " + e.Message
}

func errf(form fmt.Stringer, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Form: form}
}
