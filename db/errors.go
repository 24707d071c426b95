package db

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// LayerErrorCode is the error code reported for failures raised by this
// layer itself, as opposed to codes reported by the driver.
const LayerErrorCode = -1

// ConfigurationError is returned when no connection configuration is
// registered for a requested logical type. Fatal at acquisition time.
type ConfigurationError struct {
	Type string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("no connection configured for type %q", e.Type)
}

func (e ConfigurationError) Code() int { return LayerErrorCode }

// ConnectionError is returned when the driver connection cannot be
// established. Fatal at construction time.
type ConnectionError struct {
	Type string
	Err  error
}

func (e ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect %q: %v", e.Type, e.Err)
}

func (e ConnectionError) Unwrap() error { return e.Err }
func (e ConnectionError) Code() int     { return driverErrorCode(e.Err) }

// InvalidArgumentsError reports a malformed argument record or query
// identifier passed to ExecuteQuery.
type InvalidArgumentsError struct {
	Reason string
}

func (e InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid query arguments: %s", e.Reason)
}

func (e InvalidArgumentsError) Code() int { return LayerErrorCode }

// TemplateNotFoundError reports that a query identifier resolved to a
// template source that does not exist.
type TemplateNotFoundError struct {
	Ident string
	Path  string
}

func (e TemplateNotFoundError) Error() string {
	return fmt.Sprintf("query template %q not found at %s", e.Ident, e.Path)
}

func (e TemplateNotFoundError) Code() int { return LayerErrorCode }

// TemplateCompileError reports a failure compiling a template source.
type TemplateCompileError struct {
	Path string
	Err  error
}

func (e TemplateCompileError) Error() string {
	return fmt.Sprintf("failed to compile query template %s: %v", e.Path, e.Err)
}

func (e TemplateCompileError) Unwrap() error { return e.Err }
func (e TemplateCompileError) Code() int     { return LayerErrorCode }

// QueryBuildError reports a failure rendering a compiled descriptor into a
// final SQL string.
type QueryBuildError struct {
	Ident string
	Err   error
}

func (e QueryBuildError) Error() string {
	return fmt.Sprintf("failed to build query %q: %v", e.Ident, e.Err)
}

func (e QueryBuildError) Unwrap() error { return e.Err }
func (e QueryBuildError) Code() int     { return LayerErrorCode }

// QueryExecutionError wraps a driver-level execution failure.
type QueryExecutionError struct {
	Query string
	Err   error
}

func (e QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

func (e QueryExecutionError) Unwrap() error { return e.Err }
func (e QueryExecutionError) Code() int     { return driverErrorCode(e.Err) }

// coder is implemented by every error kind this layer reports.
type coder interface {
	Code() int
}

// driverErrorCode extracts the server error number from a MySQL driver
// error; other drivers report the layer code.
func driverErrorCode(err error) int {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return int(mysqlErr.Number)
	}
	return LayerErrorCode
}

// ErrorState is the last-error snapshot kept on a connection handle. It is a
// non-authoritative convenience for legacy-style callers; the returned error
// values are the source of truth.
type ErrorState struct {
	Code    int
	Message string
}
