package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/EmpoweredVote/refdata/internal/config"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitImportError = 1
	ExitUsageError  = 2
	ExitConfigError = 10
)

var (
	ErrUsage         = errors.New("usage error")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsageError
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, config.ErrMissingDatabase),
		errors.Is(err, config.ErrMissingDataDir),
		errors.Is(err, config.ErrUnknownPolicy):
		return ExitConfigError
	}

	// cobra does not wrap these
	msg := err.Error()
	if strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") {
		return ExitUsageError
	}
	return ExitImportError
}

func usageError(err error) error {
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

func configError(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
}
