package sqldataset

import "context"

/*
Adapter is an interface providing the methods
needed to implement a Set with a database backend.
*/
type Adapter interface {
	ColumnName(string) (string, error)

	CreateSampleTable(ctx context.Context, featureColumns []string, labelColumn string) error

	AddSamples(ctx context.Context, values [][]float64, labels []int, featureColumns []string, labelColumn string) (int, error)
	IterateOnSamples(ctx context.Context, criteria []*Predicate, featureColumns []string, labelColumn string, lambda func(int, []float64, int) (bool, error)) error
	CountSamples(ctx context.Context, criteria []*Predicate) (int, error)

	CountSampleLabels(ctx context.Context, labelColumn string, criteria []*Predicate) (map[int]int, error)
	ListSampleFeatureValues(ctx context.Context, column string, criteria []*Predicate) ([]float64, error)
}
