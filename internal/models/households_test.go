package models

import (
	"testing"
	"time"
)

// Test to verify legacy field-name normalization behavior
func TestNormalizeHouseholdLegacyAliases(t *testing.T) {
	doc := map[string]any{
		"display_last_name": "Okafor",
		"householdType":     "family",
		"neighborhoodCode":  "oak-ridge",
		"adultNames":        []any{"Ada", "Chidi"},
		"kids": []any{
			map[string]any{"age": 4, "sex": "male"},
			map[string]any{"age": 7, "gender": "F"},
		},
	}

	h := NormalizeHousehold("h1", doc)

	if h.LastName != "Okafor" {
		t.Errorf("LastName = %q, want Okafor", h.LastName)
	}
	if h.Type != "family" {
		t.Errorf("Type = %q, want family", h.Type)
	}
	if h.Neighborhood != "oak-ridge" {
		t.Errorf("Neighborhood = %q, want oak-ridge", h.Neighborhood)
	}
	if len(h.AdultNames) != 2 {
		t.Errorf("AdultNames = %v, want 2 entries", h.AdultNames)
	}
	if len(h.ChildAges) != 2 || h.ChildAges[0] != 4 || h.ChildAges[1] != 7 {
		t.Errorf("ChildAges = %v, want [4 7]", h.ChildAges)
	}
	if len(h.ChildSexes) != 2 || h.ChildSexes[0] != "M" || h.ChildSexes[1] != "F" {
		t.Errorf("ChildSexes = %v, want [M F]", h.ChildSexes)
	}
}

func TestNormalizeHouseholdBirthYearFallback(t *testing.T) {
	today := time.Now().UTC()
	doc := map[string]any{
		"lastName": "Larsen",
		"children": []any{
			map[string]any{"birthYear": today.Year() - 6, "birthMonth": int(today.Month())},
		},
	}

	h := NormalizeHousehold("h2", doc)

	if len(h.ChildAges) != 1 {
		t.Fatalf("ChildAges = %v, want 1 entry", h.ChildAges)
	}
	if h.ChildAges[0] != 6 {
		t.Errorf("age = %d, want 6", h.ChildAges[0])
	}
}

func TestNormalizeHouseholdDegradesGracefully(t *testing.T) {
	h := NormalizeHousehold("h3", nil)

	if h.ID != "h3" {
		t.Errorf("ID = %q, want h3", h.ID)
	}
	if h.AdultNames == nil || h.ChildAges == nil {
		t.Error("slices must be empty, not nil")
	}
	if h.MatchesAgeRange(0, 18) {
		t.Error("childless household must never match an age filter")
	}

	// Garbage-typed fields are ignored, not crashed on.
	h = NormalizeHousehold("h4", map[string]any{
		"lastName": 42,
		"children": "not-a-list",
	})
	if h.LastName != "" {
		t.Errorf("LastName = %q, want empty", h.LastName)
	}
	if len(h.ChildAges) != 0 {
		t.Errorf("ChildAges = %v, want empty", h.ChildAges)
	}
}
