package diag

import (
	"errors"

	"lowir/internal/lower"
	"lowir/internal/srcir"
)

// Diagnostic is one user-facing report, pinned to a source operation.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Loc      srcir.Loc
	File     string
}

// FromError turns a conversion failure into a renderable diagnostic. Other
// errors map to a generic error diagnostic with no code.
func FromError(file string, err error) Diagnostic {
	var cerr *lower.ConversionError
	if errors.As(err, &cerr) {
		msg := cerr.Detail
		if cerr.TypeName != "" {
			if msg != "" {
				msg = cerr.TypeName + ": " + msg
			} else {
				msg = cerr.TypeName
			}
		}
		return Diagnostic{
			Severity: SevError,
			Code:     cerr.Code.String(),
			Message:  msg,
			Loc:      cerr.Loc,
			File:     file,
		}
	}
	return Diagnostic{
		Severity: SevError,
		Message:  err.Error(),
		File:     file,
	}
}
