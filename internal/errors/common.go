package errors

import "fmt"

// Convenience constructors for the stable user-facing messages. Tests and
// downstream tooling match on Code, not on message text.

// UnknownService reports a service name absent from the configuration.
func UnknownService(name string) *CbhandsError {
	return NewWithDetails(ErrUnknownService, "service not found in configuration", name)
}

// AlreadyRunning reports a start attempt against a live service.
func AlreadyRunning(name string, pid int) *CbhandsError {
	return NewWithDetails(ErrAlreadyRunning, "service is already running",
		fmt.Sprintf("%s (pid %d)", name, pid))
}

// StartupTimeout reports a health probe that never passed before the deadline.
func StartupTimeout(name string) *CbhandsError {
	return NewWithDetails(ErrStartupTimeout, "service did not become healthy before timeout", name)
}

// ProcessExitedEarly reports a child that died before passing its health probe.
func ProcessExitedEarly(name string, exitCode int) *CbhandsError {
	return NewWithDetails(ErrProcessExitedEarly, "service process exited before becoming healthy",
		fmt.Sprintf("%s (exit code %d)", name, exitCode)).WithContext("exit_code", exitCode)
}

// CommandNotFound reports an invocation that resolved to no registered command.
func CommandNotFound(path string) *CbhandsError {
	return NewWithDetails(ErrCommandNotFound, "command not found", path)
}

// MissingOption reports a required option the caller did not supply.
func MissingOption(name string) *CbhandsError {
	return NewWithDetails(ErrMissingOption, "required option not provided", name)
}

// InvalidOption reports an option value that failed type coercion.
func InvalidOption(name, value string) *CbhandsError {
	return NewWithDetails(ErrInvalidOption, "invalid value for option",
		fmt.Sprintf("%s=%q", name, value))
}

// UnknownOption reports a supplied option the command does not declare.
func UnknownOption(name string) *CbhandsError {
	return NewWithDetails(ErrUnknownOption, "unknown option", name)
}

// DuplicatePlugin reports a plugin name already present in the registry.
func DuplicatePlugin(name string) *CbhandsError {
	return NewWithDetails(ErrDuplicatePlugin, "plugin is already registered", name)
}

// MissingDependency reports a declared dependency that is not registered.
func MissingDependency(plugin, dep string) *CbhandsError {
	return NewWithDetails(ErrMissingDependency, "plugin dependency not registered",
		fmt.Sprintf("%s requires %s", plugin, dep))
}

// DependencyCycle reports a cycle in declared plugin dependencies.
func DependencyCycle(members []string) *CbhandsError {
	err := NewWithDetails(ErrDependencyCycle, "plugin dependency cycle detected",
		fmt.Sprintf("%v", members))
	return err.WithContext("cycle", members)
}
