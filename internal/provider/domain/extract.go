package domain

import "strings"

// UnknownProduct is the sentinel used when no name field resolves.
// Downstream reporting keys on this exact value to detect extraction
// regressions, so it must not change.
const UnknownProduct = "Unknown Product"

// NameSource carries the candidate name fields of one order, already
// mapped from the provider-specific payload.
type NameSource struct {
	Product     string
	Variant     string
	LineProduct string
	LineVariant string
	Description string
}

// ExtractProductName resolves a display name from inconsistent provider
// payloads. Fields are attempted in a fixed order: explicit product
// name, explicit variant name, first line item's product name, first
// line item's variant name, then a free-text description. When both a
// product and a variant name resolve and they differ, the result is
// "{product} - {variant}"; identical names collapse to the product
// name alone.
func ExtractProductName(src NameSource) string {
	product := firstNonEmpty(src.Product, src.LineProduct)
	variant := firstNonEmpty(src.Variant, src.LineVariant)

	switch {
	case product != "" && variant != "" && product != variant:
		return product + " - " + variant
	case product != "":
		return product
	case variant != "":
		return variant
	}

	if desc := strings.TrimSpace(src.Description); desc != "" {
		return desc
	}
	return UnknownProduct
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
