package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nutriguide/nutriload/internal/files/filesystem"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// DatasetBuilder provides a fluent API for building SR Legacy style CSV
// fixtures. Headers carry the extra columns of the real release so that
// tests exercise header-based decoding.
//
// Example usage:
//
//	fs := NewDatasetBuilder().
//	    AddCategory(1, "Dairy and Egg Products").
//	    AddNutrient(1003, "Protein", "G").
//	    AddFood(167512, "Cheese, cheddar", 1).
//	    AddFact(167512, 1003, "22.87").
//	    Build("/data")
type DatasetBuilder struct {
	categories []string
	nutrients  []string
	foods      []string
	facts      []string
	extra      map[string]string
}

func NewDatasetBuilder() *DatasetBuilder {
	return &DatasetBuilder{extra: make(map[string]string)}
}

// AddCategory appends a row to food_category.csv.
func (b *DatasetBuilder) AddCategory(id int64, description string) *DatasetBuilder {
	b.categories = append(b.categories, row(strconv.FormatInt(id, 10), fmt.Sprintf("%02d00", id), description))
	return b
}

// AddNutrient appends a row to nutrient.csv.
func (b *DatasetBuilder) AddNutrient(id int64, name, unit string) *DatasetBuilder {
	b.nutrients = append(b.nutrients, row(strconv.FormatInt(id, 10), name, unit, "", ""))
	return b
}

// AddFood appends a row to food.csv.
func (b *DatasetBuilder) AddFood(fdcID int64, description string, categoryID int64) *DatasetBuilder {
	b.foods = append(b.foods, row(strconv.FormatInt(fdcID, 10), "sr_legacy_food", description, strconv.FormatInt(categoryID, 10), "2019-04-01"))
	return b
}

// AddFact appends a row to food_nutrient.csv. amount is written verbatim so
// that tests can supply empty or unparsable values.
func (b *DatasetBuilder) AddFact(fdcID, nutrientID int64, amount string) *DatasetBuilder {
	id := len(b.facts) + 1
	b.facts = append(b.facts, row(strconv.Itoa(id), strconv.FormatInt(fdcID, 10), strconv.FormatInt(nutrientID, 10), amount))
	return b
}

// AddRawFactLine appends a line to food_nutrient.csv as is.
func (b *DatasetBuilder) AddRawFactLine(line string) *DatasetBuilder {
	b.facts = append(b.facts, line)
	return b
}

// AddFile adds an arbitrary file next to the CSVs.
func (b *DatasetBuilder) AddFile(name, content string) *DatasetBuilder {
	b.extra[name] = content
	return b
}

// Files returns file name to content for the accumulated dataset.
func (b *DatasetBuilder) Files() map[string]string {
	files := map[string]string{
		nutriload.DefaultCategoryFile: render(`"id","code","description"`, b.categories),
		nutriload.DefaultNutrientFile: render(`"id","name","unit_name","nutrient_nbr","rank"`, b.nutrients),
		nutriload.DefaultFoodFile:     render(`"fdc_id","data_type","description","food_category_id","publication_date"`, b.foods),
		nutriload.DefaultFactFile:     render(`"id","fdc_id","nutrient_id","amount"`, b.facts),
	}
	for name, content := range b.extra {
		files[name] = content
	}
	return files
}

// Build returns an in-memory filesystem holding the dataset under dir.
func (b *DatasetBuilder) Build(dir string) *filesystem.MemoryFileSystem {
	fs := filesystem.NewMemoryFileSystem(dir)
	for name, content := range b.Files() {
		fs.AddFile(name, content)
	}
	return fs
}

// WriteTo writes the dataset into dir on disk.
func (b *DatasetBuilder) WriteTo(dir string) error {
	for name, content := range b.Files() {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return fmt.Errorf("write fixture %s: %w", name, err)
		}
	}
	return nil
}

func row(cells ...string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

func render(header string, rows []string) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')
	for _, r := range rows {
		sb.WriteString(r)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ============================================================================
// Pre-built Fixtures
// ============================================================================

// SmallDataset has three categories, four nutrients of which three are on
// the default allow-list, four foods of which one references a missing
// category, and facts covering every filter.
//
// Expected load: 3 categories, 3 nutrients, 3 foods, 5 facts.
func SmallDataset() *DatasetBuilder {
	return NewDatasetBuilder().
		AddCategory(1, "Dairy and Egg Products").
		AddCategory(2, "Spices and Herbs").
		AddCategory(3, "Baby Foods").
		AddNutrient(1003, "Protein", "G").
		AddNutrient(1008, "Energy", "KCAL").
		AddNutrient(1106, "Vitamin A, RAE", "UG").
		AddNutrient(1051, "Water", "G").
		AddFood(167512, "Cheese, cheddar", 1).
		AddFood(170931, "  Spices, pepper, black  ", 2).
		AddFood(173579, "Babyfood, cereal, oatmeal, dry", 3).
		AddFood(999999, "Mystery food", 99).
		AddFact(167512, 1003, "22.87").
		AddFact(167512, 1008, "403").
		AddFact(170931, 1003, "10.39").
		AddFact(173579, 1106, "0").
		AddFact(173579, 1003, "13.1").
		AddFact(167512, 1003, "30").    // duplicate pair
		AddFact(167512, 1051, "36.75"). // nutrient not on allow-list
		AddFact(999999, 1003, "5").     // orphaned food
		AddFact(170931, 1008, "-1").    // negative amount
		AddFact(170931, 1106, "")       // missing amount
}
