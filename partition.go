package sapling

import (
	"context"
	"fmt"
	"sort"

	"sapling/dataset"
	"sapling/feature"
)

/*
Partition represents a binary partition of a dataset on a feature
threshold, with the information gain obtained by splitting the
dataset that way.
*/
type Partition struct {
	Feature         feature.Feature
	Threshold       float64
	Left            dataset.Dataset
	Right           dataset.Dataset
	informationGain float64
}

/*
NewPartition takes a context, a dataset, a feature and a threshold and
returns the partition of the dataset into the subset whose values for
the feature are lower than or equal to the threshold and the subset
whose values are strictly greater, with the information gain of the
split, or an error if the dataset cannot be queried or subset.
*/
func NewPartition(ctx context.Context, s dataset.Dataset, f feature.Feature, threshold float64) (*Partition, error) {
	sEntropy, err := s.Entropy(ctx)
	if err != nil {
		return nil, err
	}
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: cannot partition an empty dataset", dataset.ErrInvalidInput)
	}
	left, err := s.SubsetWith(ctx, feature.NewLessEqual(f, threshold))
	if err != nil {
		return nil, err
	}
	right, err := s.SubsetWith(ctx, feature.NewGreaterThan(f, threshold))
	if err != nil {
		return nil, err
	}
	informationGain := sEntropy
	totalCount := float64(count)
	for _, subset := range []dataset.Dataset{left, right} {
		subsetEntropy, err := subset.Entropy(ctx)
		if err != nil {
			return nil, err
		}
		subsetCount, err := subset.Count(ctx)
		if err != nil {
			return nil, err
		}
		informationGain -= subsetEntropy * float64(subsetCount) / totalCount
	}
	return &Partition{f, threshold, left, right, informationGain}, nil
}

/*
InformationGain returns the information gain of the partition: the
entropy of the partitioned dataset minus the weighted entropies of the
two subsets.
*/
func (p *Partition) InformationGain() float64 {
	return p.informationGain
}

/*
BestPartition takes a context, a dataset and a slice of eligible
features and returns the partition of the dataset that obtains the
greatest information gain, or nil if no partition is beneficial: when
the dataset holds fewer than 2 distinct labels or when no candidate
threshold obtains a strictly positive gain.

Candidate thresholds for a feature are the midpoints between every pair
of consecutive distinct values the feature takes on the dataset.
Candidates are evaluated in ascending feature index order and, within a
feature, in ascending threshold order, and a candidate replaces the
current best only when its gain is strictly greater, so ties resolve
towards the lowest feature index and then the lowest threshold.

It returns a dataset.ErrInvalidInput error if the dataset has no
samples or the slice of eligible features is empty.
*/
func BestPartition(ctx context.Context, s dataset.Dataset, features []feature.Feature) (*Partition, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: cannot partition an empty dataset", dataset.ErrInvalidInput)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("%w: no features to partition on", dataset.ErrInvalidInput)
	}
	labelCounts, err := s.LabelCounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(labelCounts) < 2 {
		return nil, nil
	}
	ordered := make([]feature.Feature, len(features))
	copy(ordered, features)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	var result *Partition
	for _, f := range ordered {
		values, err := dataset.SortedFeatureValues(ctx, s, f)
		if err != nil {
			return nil, err
		}
		for i, v := range values[1:] {
			threshold := (values[i] + v) / 2.0
			part, err := NewPartition(ctx, s, f, threshold)
			if err != nil {
				return nil, err
			}
			if result == nil || part.informationGain > result.informationGain {
				result = part
			}
		}
	}
	if result == nil || result.informationGain <= 0 {
		return nil, nil
	}
	return result, nil
}
