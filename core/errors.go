package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDefinitionNotFound is returned when no definition exists at the
// expected location for an automaton identifier.
var ErrDefinitionNotFound = errors.New("automaton definition not found")

// ConfigurationError reports a fatal wiring fault discovered at load or
// resolution time: a malformed definition, a capability that requires an
// oracle but received none, or a composite automaton missing its terminal
// sub-automaton. It is never recovered into result text.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigurationError formats and returns a *ConfigurationError.
func NewConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// CapabilityNotFoundError reports an unknown capability name with neither
// a custom registration nor a built-in match. The message enumerates the
// valid built-in set for the capability kind.
type CapabilityNotFoundError struct {
	Kind     string
	Name     string
	Builtins []string
}

func (e *CapabilityNotFoundError) Error() string {
	if len(e.Builtins) == 0 {
		return fmt.Sprintf("%s `%s` not found; no built-in %ss are registered", e.Kind, e.Name, e.Kind)
	}
	return fmt.Sprintf("%s `%s` not found; built-in %ss: [%s]", e.Kind, e.Name, e.Kind, strings.Join(e.Builtins, ", "))
}

// DefinitionError reports a definition document missing a required field
// or carrying an invalid value.
type DefinitionError struct {
	ID     string
	Detail string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("definition `%s` is malformed: %s", e.ID, e.Detail)
}

// IsFatal reports whether err belongs to the error classes allowed to
// escape a run (configuration faults, unknown capabilities, definition
// faults). Everything else is translated into ordinary result text by the
// session wrapper.
func IsFatal(err error) bool {
	var ce *ConfigurationError
	var cnf *CapabilityNotFoundError
	var de *DefinitionError
	return errors.As(err, &ce) || errors.As(err, &cnf) || errors.As(err, &de) || errors.Is(err, ErrDefinitionNotFound)
}
