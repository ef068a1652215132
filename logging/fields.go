package logging

import (
	"time"

	"go.uber.org/zap"

	"github.com/inflaxprotocol/inflax/types/num"
)

// String constructs a field with the given key and value.
func String(key, val string) zap.Field {
	return zap.String(key, val)
}

// Bool constructs a field with the given key and value.
func Bool(key string, val bool) zap.Field {
	return zap.Bool(key, val)
}

// Int constructs a field with the given key and value.
func Int(key string, val int) zap.Field {
	return zap.Int(key, val)
}

// Int64 constructs a field with the given key and value.
func Int64(key string, val int64) zap.Field {
	return zap.Int64(key, val)
}

// Uint64 constructs a field with the given key and value.
func Uint64(key string, val uint64) zap.Field {
	return zap.Uint64(key, val)
}

// Float64 constructs a field with the given key and value.
func Float64(key string, val float64) zap.Field {
	return zap.Float64(key, val)
}

// Duration constructs a field with the given key and value.
func Duration(key string, val time.Duration) zap.Field {
	return zap.Duration(key, val)
}

// Time constructs a field with the given key and value.
func Time(key string, val time.Time) zap.Field {
	return zap.Time(key, val)
}

// Error constructs a field carrying an error under the standard "error" key.
func Error(err error) zap.Field {
	return zap.Error(err)
}

// BigUint constructs a field with the given key and value.
func BigUint(key string, val *num.Uint) zap.Field {
	return zap.Stringer(key, val)
}

// Decimal constructs a field with the given key and value.
func Decimal(key string, val num.Decimal) zap.Field {
	return zap.Stringer(key, val)
}

// Stringer constructs a field calling String on the value lazily.
func Stringer(key string, val interface{ String() string }) zap.Field {
	return zap.Stringer(key, val)
}
