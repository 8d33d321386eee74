package nutriload

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // Load completed
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration
	ExitConnectionError  = 11 // Failed to connect to database
	ExitLoadFailed       = 13 // A stage failed while writing
	ExitSourceUnreadable = 14 // An input file could not be read
	ExitThresholdNotMet  = 15 // Fact count below threshold (--strict only)
)

const (
	// DefaultFactBatchSize is the number of fact rows written and committed per chunk.
	DefaultFactBatchSize = 50000

	// DefaultMinFactRecords is the fact count a run must reach to be reported as passing.
	DefaultMinFactRecords = 100000

	// MaxFoodNameLength is the width of the Foods.name column.
	MaxFoodNameLength = 255

	// DefaultRetryInitialDelay is the delay before the first connect retry.
	DefaultRetryInitialDelay = 200 * time.Millisecond

	// DefaultRetryMaxDelay caps the delay between connect retries.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultRetryMaxAttempts is the number of connect retries after the first attempt.
	DefaultRetryMaxAttempts = 3

	// DefaultManagementDB is the database used for CREATE DATABASE.
	DefaultManagementDB = "postgres"

	// DefaultResetCountdown is the pause before a forced reset truncates the tables.
	DefaultResetCountdown = 5 * time.Second

	// DefaultTimeout guards against a hung run.
	DefaultTimeout = 30 * time.Minute
)

// Default input file names of the USDA FoodData Central SR Legacy CSV release.
const (
	DefaultCategoryFile = "food_category.csv"
	DefaultNutrientFile = "nutrient.csv"
	DefaultFoodFile     = "food.csv"
	DefaultFactFile     = "food_nutrient.csv"
)

// DefaultNutrientAllowList is the curated set of nutrient ids kept by the
// nutrient stage: macros, fats, minerals and vitamins.
var DefaultNutrientAllowList = []int64{
	// Macros: protein, fat, carbohydrate, energy, fiber, sugars
	1003, 1004, 1005, 1008, 1079, 2000,
	// Fats: trans, saturated, mono, poly, cholesterol
	1257, 1258, 1292, 1293, 1253,
	// Minerals
	1087, 1089, 1090, 1091, 1092, 1093, 1095, 1098, 1101, 1103,
	// Vitamins
	1106, 1109, 1114, 1162, 1165, 1166, 1167, 1170, 1175, 1177, 1178, 1180, 1185,
}

// DefaultUnitMap maps upper-cased source unit codes to display units.
var DefaultUnitMap = map[string]string{
	"UG":   "mcg",
	"MG":   "mg",
	"G":    "g",
	"KCAL": "kcal",
	"IU":   "IU",
}

// DefaultDailyFacts is the editorial content seeded when no seed file is given.
var DefaultDailyFacts = []DailyFact{
	{Text: "Iron deficiency is the most common nutritional deficiency worldwide.", Category: "Iron"},
	{Text: "Vitamin C helps your body absorb iron from plant-based foods.", Category: "Vitamins"},
	{Text: "Your body can produce Vitamin D when exposed to sunlight.", Category: "Vitamins"},
	{Text: "Protein is essential for muscle repair and growth.", Category: "Protein"},
	{Text: "Fiber helps maintain healthy digestion and can lower cholesterol.", Category: "Fiber"},
}
