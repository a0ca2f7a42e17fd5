// Package suggest is the line-item suggestion assistant: given a free-text
// job description and the contractor's price list, it proposes candidate
// quote items. The engine treats the model as a black box and validates only
// the shape of what comes back.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CandidateItem is one suggested quote line. A zero UnitPrice means the item
// was priced outside the contractor's price list and needs manual pricing.
type CandidateItem struct {
	Name      string  `json:"name" jsonschema_description:"Short, concrete name of the service line (e.g. 'Wall painting', not 'finishing work')"`
	Quantity  float64 `json:"quantity" jsonschema_description:"Estimated quantity in the given unit, derived from the job description"`
	Unit      string  `json:"unit" jsonschema_description:"Unit of measure, matching the price list entry where one applies"`
	UnitPrice float64 `json:"unit_price" jsonschema_description:"Unit price taken from the price list, or 0 if the item is not on the list"`
	Rationale string  `json:"rationale,omitempty" jsonschema_description:"One short sentence explaining the quantity estimate"`
}

// PriceListEntry is one row of the contractor's price list as shown to the
// assistant.
type PriceListEntry struct {
	Name  string
	Unit  string
	Price float64
}

// Suggester proposes candidate items for a job description.
type Suggester interface {
	Suggest(ctx context.Context, description string, priceList []PriceListEntry) ([]CandidateItem, error)
}

// Unavailable is the suggester used when no model API key is configured.
type Unavailable struct{}

func (Unavailable) Suggest(context.Context, string, []PriceListEntry) ([]CandidateItem, error) {
	return nil, errors.New("suggestion assistant is not configured")
}

// ValidateCandidates filters the assistant's output down to structurally
// valid items: non-empty name, positive quantity, non-negative price. The
// assistant's internal heuristics are not trusted beyond this shape check.
func ValidateCandidates(items []CandidateItem) []CandidateItem {
	out := make([]CandidateItem, 0, len(items))
	for _, it := range items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" || it.Quantity <= 0 || it.UnitPrice < 0 {
			continue
		}
		if it.Unit == "" {
			it.Unit = "szt"
		}
		out = append(out, it)
	}
	return out
}

// FormatPriceList renders the price list for the assistant prompt.
func FormatPriceList(entries []PriceListEntry) string {
	if len(entries) == 0 {
		return "(empty price list)"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s (%s): %.2f\n", e.Name, e.Unit, e.Price)
	}
	return b.String()
}
