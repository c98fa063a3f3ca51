package execshell

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	executableNotFoundMessageConstant  = "required executable not found"
	executableNotFoundTemplateConstant = "%s: %s"
)

// ErrExecutableNotFound indicates a required external tool is not available.
var ErrExecutableNotFound = errors.New(executableNotFoundMessageConstant)

// ExecutableNotFoundError names the missing executable.
type ExecutableNotFoundError struct {
	Executable CommandName
	Cause      error
}

// Error describes the missing executable.
func (notFoundError ExecutableNotFoundError) Error() string {
	return fmt.Sprintf(executableNotFoundTemplateConstant, executableNotFoundMessageConstant, notFoundError.Executable)
}

// Is reports ErrExecutableNotFound equivalence.
func (notFoundError ExecutableNotFoundError) Is(target error) bool {
	return target == ErrExecutableNotFound
}

// Unwrap exposes the lookup failure.
func (notFoundError ExecutableNotFoundError) Unwrap() error {
	return notFoundError.Cause
}

// PathLookup resolves an executable name to a path.
type PathLookup func(executable string) (string, error)

// ExecutableVerifier confirms external tools are installed before any work starts.
type ExecutableVerifier struct {
	lookup PathLookup
}

// NewExecutableVerifier constructs a verifier; a nil lookup falls back to exec.LookPath.
func NewExecutableVerifier(lookup PathLookup) ExecutableVerifier {
	if lookup == nil {
		lookup = exec.LookPath
	}
	return ExecutableVerifier{lookup: lookup}
}

// Verify checks every executable in order and reports the first missing one.
func (verifier ExecutableVerifier) Verify(executables ...CommandName) error {
	lookup := verifier.lookup
	if lookup == nil {
		lookup = exec.LookPath
	}
	for _, executable := range executables {
		trimmedExecutable := strings.TrimSpace(string(executable))
		if len(trimmedExecutable) == 0 {
			continue
		}
		if _, lookupError := lookup(trimmedExecutable); lookupError != nil {
			return ExecutableNotFoundError{Executable: CommandName(trimmedExecutable), Cause: lookupError}
		}
	}
	return nil
}
