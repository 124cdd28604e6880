package instrument

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/illmade-knight/go-callcache/pkg/store"
)

// Call is one replayed input/output pair.
type Call struct {
	Inputs string
	Output string
}

// Report is the replayed history of one operation.
type Report struct {
	Name  string
	Count int64
	Calls []Call
	// Mismatch is the difference between the number of recorded inputs and
	// outputs. It is zero when every call completed both appends.
	Mismatch int
}

// Lines renders each call as "<name>(*<inputs>) -> <output>".
func (r *Report) Lines() []string {
	lines := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		lines[i] = fmt.Sprintf("%s(*%s) -> %s", r.Name, c.Inputs, c.Output)
	}
	return lines
}

// String renders the full report, header first.
func (r *Report) String() string {
	var b strings.Builder
	_, _ = r.WriteTo(&b)
	return b.String()
}

// WriteTo writes the report to w.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var total int64
	write := func(format string, args ...any) error {
		n, err := fmt.Fprintf(w, format, args...)
		total += int64(n)
		return err
	}

	if err := write("%s was called %d times:\n", r.Name, r.Count); err != nil {
		return total, err
	}
	for _, line := range r.Lines() {
		if err := write("%s\n", line); err != nil {
			return total, err
		}
	}
	if r.Mismatch != 0 {
		if err := write("history mismatch: %d unpaired entries\n", r.Mismatch); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Replay reads back the recorded history of name without modifying it.
// Inputs and outputs are paired up to the shorter of the two lists.
func Replay(ctx context.Context, st store.Store, name string) (*Report, error) {
	count, err := CallCount(ctx, st, name)
	if err != nil {
		return nil, err
	}
	inputs, err := st.ListRange(ctx, InputsKey(name))
	if err != nil {
		return nil, fmt.Errorf("reading inputs of %s: %w", name, err)
	}
	outputs, err := st.ListRange(ctx, OutputsKey(name))
	if err != nil {
		return nil, fmt.Errorf("reading outputs of %s: %w", name, err)
	}

	n := min(len(inputs), len(outputs))
	report := &Report{
		Name:     name,
		Count:    count,
		Calls:    make([]Call, n),
		Mismatch: len(inputs) - len(outputs),
	}
	if report.Mismatch < 0 {
		report.Mismatch = -report.Mismatch
	}
	for i := 0; i < n; i++ {
		report.Calls[i] = Call{Inputs: inputs[i], Output: outputs[i]}
	}
	return report, nil
}
