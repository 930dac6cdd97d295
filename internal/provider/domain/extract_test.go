package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractProductName(t *testing.T) {
	tests := []struct {
		name string
		src  NameSource
		want string
	}{
		{
			name: "product and differing variant compose",
			src:  NameSource{Product: "Pro Plan", Variant: "Annual"},
			want: "Pro Plan - Annual",
		},
		{
			name: "identical product and variant collapse",
			src:  NameSource{Product: "Pro Plan", Variant: "Pro Plan"},
			want: "Pro Plan",
		},
		{
			name: "product only",
			src:  NameSource{Product: "Starter Kit"},
			want: "Starter Kit",
		},
		{
			name: "variant only",
			src:  NameSource{Variant: "Monthly"},
			want: "Monthly",
		},
		{
			name: "line item fields used when explicit fields absent",
			src:  NameSource{LineProduct: "Bundle", LineVariant: "Team"},
			want: "Bundle - Team",
		},
		{
			name: "explicit product wins over line item product",
			src:  NameSource{Product: "Top", LineProduct: "Line"},
			want: "Top",
		},
		{
			name: "description fallback",
			src:  NameSource{Description: "One-time purchase"},
			want: "One-time purchase",
		},
		{
			name: "whitespace-only fields are skipped",
			src:  NameSource{Product: "  ", Variant: "\t", Description: " Fallback "},
			want: "Fallback",
		},
		{
			name: "nothing resolves",
			src:  NameSource{},
			want: UnknownProduct,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractProductName(tc.src))
		})
	}
}
