package builder

import (
	stderrors "errors"

	"tablejig/pkg/table"
)

// ConfigError reports an invalid builder configuration detected before any
// I/O is performed.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "invalid configuration: " + e.Reason }

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return stderrors.As(err, &ce)
}

// IsSchema reports whether err is (or wraps) a table.SchemaError: a
// configured column absent from a parsed table.
func IsSchema(err error) bool {
	var se *table.SchemaError
	return stderrors.As(err, &se)
}

// IsCombine reports whether err is (or wraps) a table.CombineError: a
// missing join key or an unsuffixed column collision.
func IsCombine(err error) bool {
	var ce *table.CombineError
	return stderrors.As(err, &ce)
}
