// Package checklist is the single source of truth for the inspection
// checklist: section and item definitions, allowed answer values, and the
// derived helpers (completion counting, defect extraction) that every
// consumer shares. Server-side report generation must use this package
// instead of carrying its own copy of the item list.
package checklist

import "regexp"

type SectionID string

const (
	SectionInterior SectionID = "interior"
	SectionExterior SectionID = "exterior"
)

// ItemConfig defines one inspectable fact and its allowed answers
type ItemConfig struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Options []string `json:"options"`
}

// SectionConfig defines an ordered group of checklist items
type SectionConfig struct {
	ID    SectionID    `json:"id"`
	Label string       `json:"label"`
	Items []ItemConfig `json:"items"`
}

// Config is the ordered checklist definition
var Config = []SectionConfig{
	{
		ID:    SectionInterior,
		Label: "Interior",
		Items: []ItemConfig{
			{ID: "registration", Label: "Registration", Options: []string{"yes", "no", "added"}},
			{ID: "iftaCard", Label: "IFTA Card", Options: []string{"yes", "no", "added"}},
			{ID: "eldInstructionSheet", Label: "ELD Instruction Sheet", Options: []string{"yes", "no", "added"}},
			{ID: "accidentHotlineCard", Label: "Accident Hotline Card", Options: []string{"yes", "no", "added"}},
			{ID: "insuranceCard", Label: "Insurance Card", Options: []string{"yes", "no", "added"}},
			{ID: "blankLogBooks", Label: "Blank Log Books", Options: []string{"yes", "no", "added"}},
		},
	},
	{
		ID:    SectionExterior,
		Label: "Exterior",
		Items: []ItemConfig{
			{ID: "dotAnnual", Label: "DOT Annual", Options: []string{"in-date", "out-of-date"}},
			{ID: "iftaSticker", Label: "IFTA Sticker", Options: []string{"yes", "no", "added"}},
			{ID: "tag", Label: "Tag", Options: []string{"in-date", "out-of-date"}},
			{ID: "hutSticker", Label: "HUT Sticker", Options: []string{"yes", "no", "added"}},
			{ID: "fireExtinguisher", Label: "Fire Extinguisher", Options: []string{"yes", "no"}},
			{ID: "triangles", Label: "Triangles", Options: []string{"yes", "no"}},
			{ID: "tires", Label: "Tires", Options: []string{"yes", "no"}},
			{ID: "mudflaps", Label: "Mudflaps", Options: []string{"yes", "no"}},
		},
	},
}

// TotalItems is the number of items across all sections, used for
// progress calculations
var TotalItems = countItems()

func countItems() int {
	total := 0
	for _, section := range Config {
		total += len(section.Items)
	}
	return total
}

var itemIDPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*$`)

// ValidItemID reports whether id is a well-formed item identifier that
// exists in the given section
func ValidItemID(section SectionID, id string) bool {
	if !itemIDPattern.MatchString(id) {
		return false
	}
	for _, sec := range Config {
		if sec.ID != section {
			continue
		}
		for _, item := range sec.Items {
			if item.ID == id {
				return true
			}
		}
	}
	return false
}

// ItemLabel returns the display label for an item id, or the id itself
// when unknown
func ItemLabel(id string) string {
	for _, sec := range Config {
		for _, item := range sec.Items {
			if item.ID == id {
				return item.Label
			}
		}
	}
	return id
}

// IsDefectValue reports whether an answer flags the item as a defect or
// issue. The convention spans both answer vocabularies: "no" and
// "out-of-date" are failures, "added" means the document was missing and
// had to be supplied on the spot.
func IsDefectValue(value string) bool {
	switch value {
	case "no", "out-of-date", "added":
		return true
	}
	return false
}
