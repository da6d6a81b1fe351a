package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChooseModel(t *testing.T) {
	tests := []struct {
		name       string
		requested  string
		configured string
		want       string
	}{
		{name: "requested wins", requested: "llava:7b", configured: "qwen2.5vl:3b", want: "llava:7b"},
		{name: "configured when no request", configured: "qwen2.5vl:3b", want: "qwen2.5vl:3b"},
		{name: "fallback when nothing set", want: "default-model"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseModel(tt.requested, tt.configured, "default-model"))
		})
	}
}
