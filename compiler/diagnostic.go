package compiler

import "fmt"

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// Diagnostic is one compiler finding with its source position. Line and
// column are 1-based. A Diagnostic is an error value, so CLI callers can
// hand it straight to error reporting while the language server keeps the
// structured position.
type Diagnostic struct {
	Pos      Position
	Severity Severity
	Message  string
}

func (d Diagnostic) Error() string {
	if d.Severity == SeverityWarning {
		return fmt.Sprintf("warning: line %d, column %d: %s", d.Pos.Line, d.Pos.Column, d.Message)
	}
	return fmt.Sprintf("line %d, column %d: %s", d.Pos.Line, d.Pos.Column, d.Message)
}

// HasErrors reports whether any diagnostic in diags is an error rather
// than a warning.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func errorDiag(pos Position, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Pos: pos, Severity: SeverityError, Message: fmt.Sprintf(format, args...)}
}

func warningDiag(pos Position, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Pos: pos, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)}
}
