package sqldataset

import (
	"context"
	"fmt"
	"math"

	"sapling/dataset"
	"sapling/feature"
)

/*
Set is a dataset.Dataset to which samples can be added
and from which samples can be streamed.
*/
type Set interface {
	dataset.Dataset
	// Write will attempt to write the given samples and will
	// return the actually written number of samples and an
	// error (if not all samples could be written)
	Write(context.Context, []dataset.Sample) (int, error)
	// Read returns a channel of samples and a channel of
	// errors through which the samples of the dataset and
	// any error obtained while retrieving them are streamed.
	Read(context.Context) (<-chan dataset.Sample, <-chan error)
}

type dbSet struct {
	db             Adapter
	features       []feature.Feature
	labelColumn    string
	criteria       []feature.Criterion
	predicates     []*Predicate
	featureColumns []string
	count          *int
	entropy        *float64
	labelCounts    map[int]int
}

/*
Open takes an Adapter to a db backend, a slice of feature.Feature and the
name of the label column and returns a Set backed by the given adapter
or an error.

This function expects the adapter to have the samples table already
created, with one numeric column per feature and an integer column for
the labels.
*/
func Open(ctx context.Context, dbAdapter Adapter, features []feature.Feature, labelColumn string) (Set, error) {
	ss := &dbSet{db: dbAdapter, features: features, labelColumn: labelColumn}
	err := ss.initFeatureColumns()
	if err != nil {
		return nil, err
	}
	return ss, nil
}

/*
Create takes an Adapter, a slice of feature.Feature and the name of the
label column and returns a Set backed by the given adapter or an error.

This function will ensure that the samples table is created on the
database, with one numeric column per feature and an integer column
for the labels.
*/
func Create(ctx context.Context, dbAdapter Adapter, features []feature.Feature, labelColumn string) (Set, error) {
	ss := &dbSet{db: dbAdapter, features: features, labelColumn: labelColumn}
	err := ss.initFeatureColumns()
	if err != nil {
		return nil, err
	}
	err = ss.db.CreateSampleTable(ctx, ss.featureColumns, ss.labelColumn)
	if err != nil {
		return nil, err
	}
	return ss, nil
}

func (ss *dbSet) Count(ctx context.Context) (int, error) {
	if ss.count != nil {
		return *ss.count, nil
	}
	result, err := ss.db.CountSamples(ctx, ss.predicates)
	if err == nil {
		ss.count = &result
	}
	return result, err
}

func (ss *dbSet) Entropy(ctx context.Context) (float64, error) {
	if ss.entropy != nil {
		return *ss.entropy, nil
	}
	labelCounts, err := ss.LabelCounts(ctx)
	if err != nil {
		return 0.0, err
	}
	var count float64
	for _, c := range labelCounts {
		count += float64(c)
	}
	var result float64
	if count > 0 {
		for _, c := range labelCounts {
			if c == 0 {
				continue
			}
			probValue := float64(c) / count
			result -= probValue * math.Log2(probValue)
		}
	}
	ss.entropy = &result
	return result, nil
}

func (ss *dbSet) LabelCounts(ctx context.Context) (map[int]int, error) {
	if ss.labelCounts != nil {
		return ss.labelCounts, nil
	}
	result, err := ss.db.CountSampleLabels(ctx, ss.labelColumn, ss.predicates)
	if err == nil {
		ss.labelCounts = result
	}
	return result, err
}

func (ss *dbSet) FeatureValues(ctx context.Context, f feature.Feature) ([]float64, error) {
	column, err := ss.columnFor(f)
	if err != nil {
		return nil, err
	}
	return ss.db.ListSampleFeatureValues(ctx, column, ss.predicates)
}

func (ss *dbSet) SubsetWith(ctx context.Context, fc feature.Criterion) (dataset.Dataset, error) {
	p, err := NewPredicate(fc, ss.db.ColumnName)
	if err != nil {
		return nil, err
	}
	subsetPredicates := make([]*Predicate, 0, len(ss.predicates)+1)
	subsetPredicates = append(subsetPredicates, ss.predicates...)
	subsetPredicates = append(subsetPredicates, p)
	subsetCriteria := make([]feature.Criterion, 0, len(ss.criteria)+1)
	subsetCriteria = append(subsetCriteria, ss.criteria...)
	subsetCriteria = append(subsetCriteria, fc)
	return &dbSet{
		db:             ss.db,
		features:       ss.features,
		labelColumn:    ss.labelColumn,
		criteria:       subsetCriteria,
		predicates:     subsetPredicates,
		featureColumns: ss.featureColumns,
	}, nil
}

func (ss *dbSet) Samples(ctx context.Context) ([]dataset.Sample, error) {
	var samples []dataset.Sample
	err := ss.db.IterateOnSamples(
		ctx,
		ss.predicates,
		ss.featureColumns,
		ss.labelColumn,
		func(_ int, values []float64, label int) (bool, error) {
			samples = append(samples, dataset.NewSample(values, label))
			return true, nil
		})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (ss *dbSet) Criteria(ctx context.Context) ([]feature.Criterion, error) {
	criteria := make([]feature.Criterion, len(ss.criteria))
	copy(criteria, ss.criteria)
	return criteria, nil
}

func (ss *dbSet) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	values := make([][]float64, 0, len(samples))
	labels := make([]int, 0, len(samples))
	for i, s := range samples {
		if len(s.Values) != len(ss.features) {
			return 0, fmt.Errorf("%w: sample %d has %d values, expected %d", dataset.ErrInvalidInput, i, len(s.Values), len(ss.features))
		}
		values = append(values, s.Values)
		labels = append(labels, s.Label)
	}
	return ss.db.AddSamples(ctx, values, labels, ss.featureColumns, ss.labelColumn)
}

func (ss *dbSet) Read(ctx context.Context) (<-chan dataset.Sample, <-chan error) {
	sampleStream := make(chan dataset.Sample)
	errStream := make(chan error)
	go func() {
		err := ss.db.IterateOnSamples(
			ctx,
			ss.predicates,
			ss.featureColumns,
			ss.labelColumn,
			func(n int, values []float64, label int) (bool, error) {
				select {
				case <-ctx.Done():
					return false, nil
				case sampleStream <- dataset.NewSample(values, label):
				}
				return true, nil
			})
		if err != nil {
			go func() {
				errStream <- err
				close(errStream)
			}()
		} else {
			close(errStream)
		}
		close(sampleStream)
	}()
	return sampleStream, errStream
}

func (ss *dbSet) columnFor(f feature.Feature) (string, error) {
	if f.Index < 0 || f.Index >= len(ss.featureColumns) {
		return "", fmt.Errorf("unknown feature %s", f.Name)
	}
	return ss.featureColumns[f.Index], nil
}

func (ss *dbSet) initFeatureColumns() error {
	ss.featureColumns = make([]string, len(ss.features))
	columnFeatures := make(map[string]feature.Feature)
	for _, f := range ss.features {
		if f.Index < 0 || f.Index >= len(ss.features) {
			return fmt.Errorf("invalid feature %s: index %d out of range", f.Name, f.Index)
		}
		column, err := ss.db.ColumnName(f.Name)
		if err != nil {
			return fmt.Errorf("invalid feature %s: %v", f.Name, err)
		}
		of, ok := columnFeatures[column]
		if ok {
			return fmt.Errorf("%s and %s feature names translate to the same column name %s", f.Name, of.Name, column)
		}
		if column == ss.labelColumn {
			return fmt.Errorf("feature %s translates to the label column name %s", f.Name, column)
		}
		columnFeatures[column] = f
		ss.featureColumns[f.Index] = column
	}
	return nil
}
