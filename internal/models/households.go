package models

import (
	"strings"
	"time"
)

// Household is the canonical directory shape. Stored documents predate this
// schema and use several legacy spellings, so reads always pass through
// NormalizeHousehold.
type Household struct {
	ID           string   `json:"id"`
	LastName     string   `json:"lastName,omitempty"`
	Type         string   `json:"type,omitempty"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	AdultNames   []string `json:"adultNames"`
	ChildAges    []int    `json:"childAges"`
	ChildSexes   []string `json:"childSexes,omitempty"`
}

// RawHousehold is a stored document plus its id, before normalization.
type RawHousehold struct {
	ID  string
	Doc map[string]any
}

func firstString(doc map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := doc[k]
		if !ok || v == nil {
			continue
		}
		// Neighborhood occasionally arrives as a list; take the first entry.
		if list, ok := v.([]any); ok {
			if len(list) == 0 {
				continue
			}
			v = list[0]
		}
		if s, ok := v.(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		}
	}
	return ""
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

func normalizeSex(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(s, "M"):
		return "M"
	case strings.HasPrefix(s, "F"):
		return "F"
	}
	return s[:1]
}

// childAge resolves a child entry to an age: an explicit age field wins,
// otherwise birthYear/birthMonth is converted relative to today.
func childAge(kid map[string]any, today time.Time) (int, bool) {
	if v, ok := kid["age"]; ok {
		if age, ok := asInt(v); ok && age >= 0 {
			return age, true
		}
	}
	by, okY := kid["birthYear"]
	if !okY {
		by, okY = kid["birth_year"]
	}
	if !okY {
		return 0, false
	}
	year, ok := asInt(by)
	if !ok {
		return 0, false
	}
	month := 1
	if bm, okM := kid["birthMonth"]; okM {
		if m, ok := asInt(bm); ok {
			month = m
		}
	} else if bm, okM := kid["birth_month"]; okM {
		if m, ok := asInt(bm); ok {
			month = m
		}
	}
	if month < 1 || month > 12 {
		month = 1
	}
	age := today.Year() - year
	if int(today.Month()) < month {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// NormalizeHousehold maps the known legacy field variants onto the canonical
// shape. Unknown aliases are ignored; missing fields degrade to empty
// defaults.
func NormalizeHousehold(id string, doc map[string]any) Household {
	h := Household{
		ID:         id,
		AdultNames: []string{},
		ChildAges:  []int{},
	}
	if doc == nil {
		return h
	}

	h.LastName = firstString(doc,
		"displayLastName", "display_last_name", "lastName", "last_name")
	h.Type = firstString(doc, "type", "householdType", "household_type", "kind")
	h.Neighborhood = firstString(doc,
		"neighborhood", "neighborhoodName", "neighborhood_name",
		"neighborhoodCode", "neighborhood_code",
		"neighborhoodId", "neighborhood_id", "neighborhoods")

	switch names := doc["adultNames"].(type) {
	case []any:
		for _, n := range names {
			if s, ok := n.(string); ok && s != "" {
				h.AdultNames = append(h.AdultNames, s)
			}
		}
	case string:
		if names != "" {
			h.AdultNames = append(h.AdultNames, names)
		}
	}

	kids := doc["children"]
	if kids == nil {
		kids = doc["kids"]
	}
	if kids == nil {
		kids = doc["Kids"]
	}
	list, ok := kids.([]any)
	if !ok {
		return h
	}
	today := time.Now().UTC()
	for _, entry := range list {
		switch kid := entry.(type) {
		case map[string]any:
			age, ok := childAge(kid, today)
			if !ok {
				continue
			}
			h.ChildAges = append(h.ChildAges, age)
			sex := kid["sex"]
			if sex == nil {
				sex = kid["gender"]
			}
			h.ChildSexes = append(h.ChildSexes, normalizeSex(sex))
		default:
			if age, ok := asInt(entry); ok && age >= 0 {
				h.ChildAges = append(h.ChildAges, age)
				h.ChildSexes = append(h.ChildSexes, "")
			}
		}
	}
	return h
}

// MatchesAgeRange reports whether any child's age falls inside the inclusive
// range. A household with no children never matches an age filter.
func (h Household) MatchesAgeRange(min, max int) bool {
	for _, age := range h.ChildAges {
		if age >= min && age <= max {
			return true
		}
	}
	return false
}
