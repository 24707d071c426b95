package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueEval(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		args map[string]any
		want int
	}{
		{"literal", Literal(20), nil, 20},
		{"literal below one clamps", Literal(0), nil, 1},
		{"arg present", FromArg("page", 1), map[string]any{"page": 3}, 3},
		{"arg missing uses default", FromArg("page", 1), map[string]any{}, 1},
		{"arg as string", FromArg("page", 1), map[string]any{"page": "4"}, 4},
		{"arg as int64", FromArg("page", 1), map[string]any{"page": int64(2)}, 2},
		{"arg below one uses default", FromArg("page", 5), map[string]any{"page": 0}, 5},
		{"non-numeric arg uses default", FromArg("page", 2), map[string]any{"page": "abc"}, 2},
		{"default below one clamps", FromArg("page", 0), nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.val.Eval(tt.args))
		})
	}
}
