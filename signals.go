package queryz

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signal definitions for codec lifecycle events.
// Signals follow the pattern: codec.<operation>.<event>.
var (
	SignalCodecCreated = capitan.NewSignal(
		"codec.created",
		"Codec instantiated around a mapping",
	)
	SignalParseStart = capitan.NewSignal(
		"codec.parse.start",
		"Parse operation beginning",
	)
	SignalParseComplete = capitan.NewSignal(
		"codec.parse.complete",
		"Parse operation finished",
	)
	SignalSerializeStart = capitan.NewSignal(
		"codec.serialize.start",
		"Serialize operation beginning",
	)
	SignalSerializeComplete = capitan.NewSignal(
		"codec.serialize.complete",
		"Serialize operation finished",
	)
	SignalUnconsumedInput = capitan.NewSignal(
		"codec.unconsumed",
		"A parameter had occurrences left unread after parsing",
	)
)

// Keys for typed event data.
// All keys use primitive types to avoid custom struct serialization.
var (
	FieldName     = capitan.NewStringKey("name")     // Codec instance name
	FieldMapping  = capitan.NewStringKey("mapping")  // Root mapping name
	FieldKey      = capitan.NewStringKey("key")      // Parameter key
	FieldKeys     = capitan.NewIntKey("keys")        // Number of parameter keys
	FieldWarnings = capitan.NewIntKey("warnings")    // Warning count
	FieldErrors   = capitan.NewIntKey("errors")      // Error count
	FieldDuration = capitan.NewDurationKey("duration")
	FieldError    = capitan.NewErrorKey("error")
)

// emitCodecCreated emits an event when a codec is created.
func emitCodecCreated(ctx context.Context, name, mapping Name) {
	capitan.Emit(ctx, SignalCodecCreated,
		FieldName.Field(string(name)),
		FieldMapping.Field(string(mapping)),
	)
}

// emitParseStart emits an event when a parse begins.
func emitParseStart(ctx context.Context, name Name, keys int) {
	capitan.Emit(ctx, SignalParseStart,
		FieldName.Field(string(name)),
		FieldKeys.Field(keys),
	)
}

// emitParseComplete emits an event when a parse finishes.
func emitParseComplete(ctx context.Context, name Name, duration time.Duration, warnings int, err error) {
	fields := []capitan.Field{
		FieldName.Field(string(name)),
		FieldDuration.Field(duration),
		FieldWarnings.Field(warnings),
	}
	if err != nil {
		fields = append(fields, FieldError.Field(err))
		capitan.Error(ctx, SignalParseComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalParseComplete, fields...)
}

// emitSerializeStart emits an event when serialization begins.
func emitSerializeStart(ctx context.Context, name Name) {
	capitan.Emit(ctx, SignalSerializeStart,
		FieldName.Field(string(name)),
	)
}

// emitSerializeComplete emits an event when serialization finishes.
func emitSerializeComplete(ctx context.Context, name Name, duration time.Duration, keys int, err error) {
	fields := []capitan.Field{
		FieldName.Field(string(name)),
		FieldDuration.Field(duration),
		FieldKeys.Field(keys),
	}
	if err != nil {
		fields = append(fields, FieldError.Field(err))
		capitan.Error(ctx, SignalSerializeComplete, fields...)
		return
	}
	capitan.Emit(ctx, SignalSerializeComplete, fields...)
}

// emitUnconsumed emits a warning for one leftover parameter key.
func emitUnconsumed(ctx context.Context, name Name, key string) {
	capitan.Warn(ctx, SignalUnconsumedInput,
		FieldName.Field(string(name)),
		FieldKey.Field(key),
		FieldError.Field(ErrUnconsumedInput),
	)
}
