package goerror

import "errors"

// Process exit codes. The zero value is success.
const (
	ExitOK        = 0
	ExitConfig    = 1
	ExitUsage     = 2
	ExitInput     = 3
	ExitTransport = 4
)

// ExitCode returns the exit code for err. Errors outside this package count
// as transport failures since they escaped classification at the call site.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var ge *Error
	if errors.As(err, &ge) {
		return ge.ExitCode()
	}

	return ExitTransport
}
