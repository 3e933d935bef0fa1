package schema

import (
	"errors"
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fieldset/internal/catalog"
)

// CompileError reports a schema problem with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

// fromContract wraps a catalog contract violation with the position of the
// declaration that caused it.
func fromContract(err error, path string, pos token.Pos) error {
	var ce *catalog.ContractError
	if errors.As(err, &ce) {
		return &CompileError{
			Field:   path,
			Message: fmt.Sprintf("%s: %s", ce.Code, ce.Message),
			Pos:     pos,
		}
	}
	return &CompileError{Field: path, Message: err.Error(), Pos: pos}
}
