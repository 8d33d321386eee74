package nutriload

// Raw CSV records, decoded by header name. Pointer fields are nil when the
// cell is empty so that missing values can be told apart from zero.

// CategoryRecord is a row of food_category.csv.
type CategoryRecord struct {
	ID          *int64 `csv:"id"`
	Description string `csv:"description"`
}

// NutrientRecord is a row of nutrient.csv.
type NutrientRecord struct {
	ID       *int64 `csv:"id"`
	Name     string `csv:"name"`
	UnitName string `csv:"unit_name"`
}

// FoodRecord is a row of food.csv.
type FoodRecord struct {
	FDCID       *int64 `csv:"fdc_id"`
	Description string `csv:"description"`
	CategoryID  *int64 `csv:"food_category_id"`
}

// FactRecord is a row of food_nutrient.csv.
type FactRecord struct {
	FDCID      *int64   `csv:"fdc_id"`
	NutrientID *int64   `csv:"nutrient_id"`
	Amount     *float64 `csv:"amount"`
}

// RecordSet is the fully materialized content of one input file.
type RecordSet[T any] struct {
	// Path is the file the records were read from
	Path string

	// Rows are the records that decoded successfully
	Rows []T

	// Malformed counts rows that could not be decoded and were skipped
	Malformed int
}
