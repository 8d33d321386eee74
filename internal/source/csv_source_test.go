package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriguide/nutriload/internal/files/filesystem"
	"github.com/nutriguide/nutriload/internal/logging"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

const dataDir = "/data/sr_legacy"

func newTestSource(files map[string]string) *CSVSource {
	mfs := filesystem.NewMemoryFileSystem(dataDir)
	for name, content := range files {
		mfs.AddFile(name, content)
	}
	return NewCSVSource(mfs, dataDir, nutriload.DefaultSourceFiles(), logging.NewNullLogger())
}

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func TestCSVSource_Categories(t *testing.T) {
	src := newTestSource(map[string]string{
		"food_category.csv": "\xEF\xBB\xBF\"id\",\"code\",\"description\"\n" +
			"\"1\",\"0100\",\"Dairy and Egg Products\"\n" +
			"\"2\",\"0200\",\"Spices and Herbs\"\n",
	})

	set, err := src.Categories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/data/sr_legacy/food_category.csv", set.Path)
	assert.Equal(t, 0, set.Malformed)
	assert.Equal(t, []nutriload.CategoryRecord{
		{ID: i64(1), Description: "Dairy and Egg Products"},
		{ID: i64(2), Description: "Spices and Herbs"},
	}, set.Rows)
}

func TestCSVSource_Nutrients(t *testing.T) {
	src := newTestSource(map[string]string{
		"nutrient.csv": "\"id\",\"name\",\"unit_name\",\"nutrient_nbr\",\"rank\"\n" +
			"\"1003\",\"Protein\",\"G\",\"203\",\"600\"\n" +
			"\"1106\",\"Vitamin A, RAE\",\"UG\",\"320\",\"7420\"\n",
	})

	set, err := src.Nutrients(context.Background())
	require.NoError(t, err)
	require.Len(t, set.Rows, 2)
	assert.Equal(t, "Vitamin A, RAE", set.Rows[1].Name)
	assert.Equal(t, "UG", set.Rows[1].UnitName)
}

func TestCSVSource_Foods_MissingAndMalformedValues(t *testing.T) {
	src := newTestSource(map[string]string{
		"food.csv": "\"fdc_id\",\"data_type\",\"description\",\"food_category_id\",\"publication_date\"\n" +
			"\"167512\",\"sr_legacy_food\",\"Pillsbury Golden Layer Buttermilk Biscuits\",\"18\",\"2019-04-01\"\n" +
			"\"167513\",\"sr_legacy_food\",\"No category\",\"\",\"2019-04-01\"\n" +
			"\"abc\",\"sr_legacy_food\",\"Bad id\",\"18\",\"2019-04-01\"\n" +
			"\"167514\",\"short row\"\n",
	})

	set, err := src.Foods(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, set.Malformed)
	require.Len(t, set.Rows, 2)
	assert.Equal(t, i64(167512), set.Rows[0].FDCID)
	assert.Equal(t, i64(18), set.Rows[0].CategoryID)
	assert.Nil(t, set.Rows[1].CategoryID)
}

func TestCSVSource_Facts(t *testing.T) {
	src := newTestSource(map[string]string{
		"food_nutrient.csv": "\"id\",\"fdc_id\",\"nutrient_id\",\"amount\",\"data_points\",\"derivation_id\"\n" +
			"\"1\",\"167512\",\"1003\",\"5.88\",\"1\",\"1\"\n" +
			"\"2\",\"167512\",\"1004\",\"\",\"\",\"\"\n" +
			"\"3\",\"167512\",\"1005\",\"n/a\",\"\",\"\"\n",
	})

	set, err := src.Facts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, set.Malformed)
	require.Len(t, set.Rows, 2)
	assert.Equal(t, f64(5.88), set.Rows[0].Amount)
	assert.Nil(t, set.Rows[1].Amount)
}

func TestCSVSource_PaddedHeaderNames(t *testing.T) {
	src := newTestSource(map[string]string{
		"food_nutrient.csv": "fdc_id, nutrient_id , amount\n10,1003,1.5\n10,1004,2\n",
	})

	set, err := src.Facts(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, set.Malformed)
	assert.Equal(t, []nutriload.FactRecord{
		{FDCID: i64(10), NutrientID: i64(1003), Amount: f64(1.5)},
		{FDCID: i64(10), NutrientID: i64(1004), Amount: f64(2)},
	}, set.Rows)
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := newTestSource(map[string]string{
		"food.csv":     "fdc_id,description,food_category_id\n",
		"notes.txt":    "not a csv",
		"nutrient.csv": "id,name,unit_name\n",
	})

	_, err := src.Categories(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, nutriload.ErrSourceUnreadable))
	assert.Contains(t, err.Error(), "food.csv, nutrient.csv")
	assert.NotContains(t, err.Error(), "notes.txt")
	assert.Equal(t, nutriload.ExitSourceUnreadable, nutriload.ExitCodeForError(err))
}

func TestCSVSource_MissingColumn(t *testing.T) {
	src := newTestSource(map[string]string{
		"food_nutrient.csv": "id,fdc_id,amount\n1,167512,5.88\n",
	})

	_, err := src.Facts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, nutriload.ErrSourceUnreadable))
	assert.Contains(t, err.Error(), "nutrient_id")
}

func TestCSVSource_EmptyFile(t *testing.T) {
	src := newTestSource(map[string]string{"food_category.csv": ""})

	_, err := src.Categories(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, nutriload.ErrSourceUnreadable))
}

func TestCSVSource_HeaderOnly(t *testing.T) {
	src := newTestSource(map[string]string{"food_category.csv": "id,code,description\n"})

	set, err := src.Categories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, set.Rows)
	assert.Equal(t, 0, set.Malformed)
}

func TestCSVSource_CanceledContext(t *testing.T) {
	src := newTestSource(map[string]string{"food_category.csv": "id,code,description\n1,0100,Dairy\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Categories(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewCSVSource_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() {
		NewCSVSource(nil, dataDir, nutriload.DefaultSourceFiles(), logging.NewNullLogger())
	})
	assert.Panics(t, func() {
		NewCSVSource(filesystem.NewMemoryFileSystem(dataDir), dataDir, nutriload.DefaultSourceFiles(), nil)
	})
}
