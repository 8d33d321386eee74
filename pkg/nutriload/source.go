package nutriload

import "context"

// Source reads the four reference files. Each call reads one file fully into
// memory. An error means the file could not be used at all; individual bad
// rows are skipped and counted in RecordSet.Malformed.
type Source interface {
	Categories(ctx context.Context) (RecordSet[CategoryRecord], error)
	Nutrients(ctx context.Context) (RecordSet[NutrientRecord], error)
	Foods(ctx context.Context) (RecordSet[FoodRecord], error)
	Facts(ctx context.Context) (RecordSet[FactRecord], error)
}
