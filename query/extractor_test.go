package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		text string
		want Constraints
	}{
		{
			name: "price and category",
			text: "shirts under 500",
			want: Constraints{MaxPrice: f(500), Category: "shirt"},
		},
		{
			name: "first price pattern wins",
			text: "Sneakers less than 2000 or maximum 3000",
			want: Constraints{MaxPrice: f(2000), Category: "sneakers"},
		},
		{
			name: "rating and reviews",
			text: "a watch rated above 4.5 with good reviews",
			want: Constraints{MinRating: f(4.5), GoodReviews: true, Category: "watch"},
		},
		{
			name: "highly rated",
			text: "highly rated bag for women",
			want: Constraints{GoodReviews: true, Category: "bag", Gender: "women"},
		},
		{
			name: "gender and color",
			text: "Black jeans for men",
			want: Constraints{Category: "jeans", Gender: "men", Color: "black"},
		},
		{
			name: "nothing",
			text: "hello there",
			want: Constraints{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, Extract("hi").Empty())
}

func TestExtractGender(t *testing.T) {
	assert.Equal(t, "women", ExtractGender("dress for ladies"))
	assert.Equal(t, "women", ExtractGender("women shoes"))
	assert.Equal(t, "men", ExtractGender("shoes for men"))
	assert.Equal(t, "", ExtractGender("womenswear"))
}

func TestParseAvailability(t *testing.T) {
	tests := []struct {
		name string
		text string
		want AvailabilityQuery
	}{
		{
			name: "color and type",
			text: "Do you have a blue shirt in size XL for men?",
			want: AvailabilityQuery{ProductName: "blue shirt", Size: "xl", Color: "blue", Gender: "men"},
		},
		{
			name: "bare type",
			text: "hoodie",
			want: AvailabilityQuery{ProductName: "hoodie"},
		},
		{
			name: "generic ask",
			text: "is there linen kurta stock",
			want: AvailabilityQuery{ProductName: "linen kurta stock"},
		},
		{
			name: "unknown",
			text: "hello",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAvailability(tt.text)
			require.Equal(t, tt.want, got)
		})
	}
}
