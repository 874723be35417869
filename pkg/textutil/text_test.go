package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "men s t shirt  cotton ", Normalize("Men's T-Shirt (Cotton)"))
	assert.Equal(t, "", Normalize(""))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "drops stop words and single chars", in: "A very good Shirt for the men", want: []string{"good", "shirt", "men"}},
		{name: "punctuation splits", in: "blue/red sneakers, size-9", want: []string{"blue", "red", "sneakers", "size"}},
		{name: "empty", in: "", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContainsWord(t *testing.T) {
	assert.True(t, ContainsWord("Shoes for Men", "men"))
	assert.False(t, ContainsWord("Shoes for women", "men"))
	assert.True(t, IsStopWord("the"))
	assert.False(t, IsStopWord("hoodie"))
}
