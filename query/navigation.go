package query

import "strconv"

// Value is a navigation parameter: either a literal or the name of a caller
// argument resolved at execution time. Zero/missing values fall back to the
// default, and anything below 1 is clamped to 1 so pagination math never
// divides by zero.
type Value struct {
	literal int
	arg     string
	def     int
}

// Literal returns a Value fixed at n.
func Literal(n int) Value {
	return Value{literal: n}
}

// FromArg returns a Value read from the named caller argument, falling back
// to def when the argument is absent or not a positive number.
func FromArg(name string, def int) Value {
	return Value{arg: name, def: def}
}

// Eval resolves the value against the caller's arguments.
func (v Value) Eval(args map[string]any) int {
	if v.arg != "" {
		if raw, ok := args[v.arg]; ok {
			if n, ok := toInt(raw); ok && n >= 1 {
				return n
			}
		}
		return clamp(v.def)
	}
	return clamp(v.literal)
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func toInt(raw any) (int, bool) {
	switch n := raw.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Navigation carries the pagination parameters declared on a descriptor.
type Navigation struct {
	// ListCount is the number of rows per page.
	ListCount Value
	// PageCount is the number of page links to display.
	PageCount Value
	// Page is the requested page number.
	Page Value
}
