// Package instrument wraps operations so that every call is counted and its
// inputs and outputs are recorded in the store for later replay.
//
// Instrumentation composes single atomic store commands and never wraps them in a
// transaction: a failure between steps can leave the counter and the two history
// lists out of step. Replay reports such gaps rather than hiding them.
package instrument

import (
	"context"
	"fmt"
	"strings"

	"github.com/illmade-knight/go-callcache/pkg/store"
)

// Operation is a single-argument call that can be instrumented.
type Operation[In, Out any] func(ctx context.Context, in In) (Out, error)

// CounterKey is the store key holding the invocation count for name.
func CounterKey(name string) string { return name }

// InputsKey is the store key of the recorded-inputs list for name.
func InputsKey(name string) string { return name + ":inputs" }

// OutputsKey is the store key of the recorded-outputs list for name.
func OutputsKey(name string) string { return name + ":outputs" }

func mustName(name string) {
	if strings.TrimSpace(name) == "" {
		panic("instrument: operation name must not be empty")
	}
}

// Counted increments the counter for name before every call to op.
func Counted[In, Out any](st store.Store, name string, op Operation[In, Out]) Operation[In, Out] {
	mustName(name)
	return func(ctx context.Context, in In) (Out, error) {
		if _, err := st.Incr(ctx, CounterKey(name)); err != nil {
			var zero Out
			return zero, fmt.Errorf("counting call to %s: %w", name, err)
		}
		return op(ctx, in)
	}
}

// Recorded appends the call's input to the input history, runs op, and appends
// the result to the output history. A failed op records no output.
func Recorded[In, Out any](st store.Store, name string, op Operation[In, Out]) Operation[In, Out] {
	mustName(name)
	return func(ctx context.Context, in In) (Out, error) {
		var zero Out
		if err := st.ListAppend(ctx, InputsKey(name), FormatInputs(in)); err != nil {
			return zero, fmt.Errorf("recording input of %s: %w", name, err)
		}
		out, err := op(ctx, in)
		if err != nil {
			return zero, err
		}
		if err := st.ListAppend(ctx, OutputsKey(name), FormatOutput(out)); err != nil {
			return zero, fmt.Errorf("recording output of %s: %w", name, err)
		}
		return out, nil
	}
}

// Instrumented counts and records op: increment, append input, call, append output.
func Instrumented[In, Out any](st store.Store, name string, op Operation[In, Out]) Operation[In, Out] {
	return Counted(st, name, Recorded(st, name, op))
}

// CallCount returns how many times name has been invoked. A counter that was
// never written reads as zero.
func CallCount(ctx context.Context, st store.Store, name string) (int64, error) {
	n, err := store.ReadCounter(ctx, st, CounterKey(name))
	if err != nil {
		return 0, fmt.Errorf("reading call count of %s: %w", name, err)
	}
	return n, nil
}
