package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/events"
	"github.com/roach88/eventc/internal/project"
)

// Error codes reported by the CLI. Project load errors keep the codes
// assigned by package project (E001-E006); compile errors report their
// compiler.Code.
const (
	ErrCodeGeneric     = "E010" // Generic/unknown error
	ErrCodeCatalog     = "E011" // Event catalog failed to load
	ErrCodeWriteFailed = "E012" // File write error
	ErrCodeCache       = "E013" // Cache database error
	ErrCodeNotFound    = "E014" // Named script or event not found
)

// LoadError represents a failure to load CLI inputs other than the project
// file itself.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

// Error omits Code; callers report it separately.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadRegistry returns the built-in event registry extended with the CUE
// catalogs at paths, in order. An id declared twice fails the load.
func LoadRegistry(paths []string) (*compiler.Registry, error) {
	reg, err := events.NewRegistry()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCatalog, Message: "built-in catalog", Err: err}
	}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeCatalog, Message: fmt.Sprintf("reading %s", path), Err: err}
		}
		defs, err := events.LoadCatalog(path, src)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeCatalog, Message: fmt.Sprintf("loading %s", path), Err: err}
		}
		if err := reg.Register(defs...); err != nil {
			return nil, &LoadError{Code: ErrCodeCatalog, Message: fmt.Sprintf("registering %s", path), Err: err}
		}
	}
	return reg, nil
}

// errorCode maps an error onto the code reported to the user.
func errorCode(err error) string {
	var pe *project.LoadError
	if errors.As(err, &pe) {
		return pe.Code
	}
	if code := compiler.CodeOf(err); code != "" {
		return string(code)
	}
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}

// errorMessage returns the message to print next to errorCode(err).
func errorMessage(err error) string {
	var pe *project.LoadError
	if errors.As(err, &pe) {
		return pe.Error()
	}
	var le *LoadError
	if errors.As(err, &le) && compiler.CodeOf(err) == "" {
		return le.Error()
	}
	return err.Error()
}
