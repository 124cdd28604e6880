package instrument

import (
	"fmt"
	"strings"
)

// Args lets an operation that takes several arguments have each of them
// recorded separately.
type Args []any

// FormatInputs renders a call's arguments for the input history.
// Text and bytes are quoted; everything else uses its default format.
// The result is for display and cannot be parsed back.
func FormatInputs(in any) string {
	args, ok := in.(Args)
	if !ok {
		args = Args{in}
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = formatArg(a)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// FormatOutput renders a call's result for the output history.
func FormatOutput(out any) string {
	if b, ok := out.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(out)
}

func formatArg(a any) string {
	switch v := a.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case []byte:
		return fmt.Sprintf("b%q", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
