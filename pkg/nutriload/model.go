package nutriload

// Category is a row of Food_Categories.
type Category struct {
	ID   int64
	Name string
}

// Nutrient is a row of Nutrients. Unit holds the normalized display unit.
type Nutrient struct {
	ID   int64
	Name string
	Unit string
}

// Food is a row of Foods.
type Food struct {
	ID         int64
	Name       string
	CategoryID int64
}

// Fact is a row of Food_Nutrients: the amount of one nutrient in 100 g of one food.
type Fact struct {
	FoodID       int64
	NutrientID   int64
	AmountPer100 float64
}

// Key returns the (food, nutrient) pair that identifies the fact.
func (f Fact) Key() FactKey {
	return FactKey{FoodID: f.FoodID, NutrientID: f.NutrientID}
}

// FactKey is the uniqueness key of Food_Nutrients.
type FactKey struct {
	FoodID     int64
	NutrientID int64
}

// DailyFact is a row of Daily_Facts.
type DailyFact struct {
	Text     string `json:"fact_text" yaml:"fact_text"`
	Category string `json:"category" yaml:"category"`
}

// IDSet is an immutable set of identifiers that passed a stage's filters.
// The zero value is an empty set.
type IDSet struct {
	ids map[int64]struct{}
}

// NewIDSet builds a set from the given ids. Duplicates collapse.
func NewIDSet(ids ...int64) IDSet {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return IDSet{ids: m}
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id int64) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of ids in the set.
func (s IDSet) Len() int {
	return len(s.ids)
}
