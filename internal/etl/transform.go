package etl

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// NormalizeUnit maps a source unit code to its display unit. Lookup is
// case-insensitive; unknown codes fall back to the lower-cased code.
func NormalizeUnit(code string, units map[string]string) string {
	code = strings.TrimSpace(code)
	if unit, ok := units[strings.ToUpper(code)]; ok {
		return unit
	}
	return strings.ToLower(code)
}

// CleanFoodName trims surrounding whitespace and truncates to
// nutriload.MaxFoodNameLength characters without splitting a rune.
func CleanFoodName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= nutriload.MaxFoodNameLength {
		return name
	}

	n := 0
	for i := range name {
		if n == nutriload.MaxFoodNameLength {
			return name[:i]
		}
		n++
	}
	return name
}

// FactFilterStats counts the rows FilterFacts dropped, by reason.
type FactFilterStats struct {
	Malformed     int // food or nutrient id missing
	InvalidRef    int // food or nutrient not in its validity set
	InvalidAmount int // amount missing or negative
	Duplicates    int // repeated (food, nutrient) pair
}

// Dropped is the total number of rows removed.
func (s FactFilterStats) Dropped() int {
	return s.Malformed + s.InvalidRef + s.InvalidAmount + s.Duplicates
}

// validAmount rejects missing, negative, NaN and infinite amounts.
func validAmount(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) && *v >= 0
}

// FilterFacts keeps rows whose food and nutrient are both valid and whose
// amount is a present, finite, non-negative number, then drops repeated (food, nutrient)
// pairs keeping the first occurrence. Input order is preserved.
func FilterFacts(rows []nutriload.FactRecord, foods, nutrients nutriload.IDSet) ([]nutriload.Fact, FactFilterStats) {
	var stats FactFilterStats
	out := make([]nutriload.Fact, 0, len(rows))
	seen := make(map[nutriload.FactKey]struct{}, len(rows))

	for _, r := range rows {
		if r.FDCID == nil || r.NutrientID == nil {
			stats.Malformed++
			continue
		}
		if !foods.Contains(*r.FDCID) || !nutrients.Contains(*r.NutrientID) {
			stats.InvalidRef++
			continue
		}
		if !validAmount(r.Amount) {
			stats.InvalidAmount++
			continue
		}

		fact := nutriload.Fact{FoodID: *r.FDCID, NutrientID: *r.NutrientID, AmountPer100: *r.Amount}
		if _, dup := seen[fact.Key()]; dup {
			stats.Duplicates++
			continue
		}
		seen[fact.Key()] = struct{}{}
		out = append(out, fact)
	}
	return out, stats
}
