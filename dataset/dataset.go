package dataset

import (
	"context"
	"fmt"
	"math"
	"sort"

	"sapling/feature"
)

const (
	sampleCountThresholdForDatasetImplementation = 1000
)

// InvalidInputError represents a broken call contract: the caller handed
// the library data that does not satisfy its invariants.
type InvalidInputError string

func (e InvalidInputError) Error() string {
	return string(e)
}

/*
ErrInvalidInput is the error every broken-contract failure wraps: callers
can detect the whole family with errors.Is.
*/
const ErrInvalidInput = InvalidInputError("invalid input")

/*
ErrEmptyDataset is returned by operations that are undefined on a dataset
without samples, such as taking its majority label.
*/
const ErrEmptyDataset = InvalidInputError("dataset has no samples")

/*
Dataset represents a collection of samples.

Its Entropy method returns the Shannon entropy of the labels of the samples
that belong to it, in bits: a measure of the disinformation we have on the
class of a sample drawn from it. The entropy of an empty dataset is 0 by
convention.

Its LabelCounts method returns the number of samples per distinct label.

Its FeatureValues method returns the distinct values the given feature
takes on the dataset.

Its SubsetWith method takes a feature.Criterion and returns a subset that
only contains samples that satisfy it.

Its Criteria method returns the chain of criteria that defines the dataset
as a subset of the dataset it was derived from, outermost last.

Its Samples method returns the samples it contains.
*/
type Dataset interface {
	Count(context.Context) (int, error)
	Entropy(context.Context) (float64, error)
	LabelCounts(context.Context) (map[int]int, error)
	FeatureValues(context.Context, feature.Feature) ([]float64, error)
	SubsetWith(context.Context, feature.Criterion) (Dataset, error)
	Samples(context.Context) ([]Sample, error)
	Criteria(context.Context) ([]feature.Criterion, error)
}

type memoryIntensiveSubsettingDataset struct {
	entropy  *float64
	samples  []Sample
	criteria []feature.Criterion
}

type cpuIntensiveSubsettingDataset struct {
	entropy  *float64
	count    *int
	samples  []Sample
	criteria []feature.Criterion
}

/*
New takes a slice of samples and returns a dataset built with them.
The dataset will be a CPU intensive one when the number of samples is
over sampleCountThresholdForDatasetImplementation
*/
func New(samples []Sample) Dataset {
	if len(samples) > sampleCountThresholdForDatasetImplementation {
		return &cpuIntensiveSubsettingDataset{nil, nil, samples, []feature.Criterion{}}
	}
	return &memoryIntensiveSubsettingDataset{nil, samples, nil}
}

/*
NewMemoryIntensive takes a slice of samples and returns a Dataset
built with them. A memory-intensive dataset is an implementation that
replicates the slice of samples when subsetting to reduce
calculations at the cost of increased memory.
*/
func NewMemoryIntensive(samples []Sample) Dataset {
	return &memoryIntensiveSubsettingDataset{nil, samples, nil}
}

/*
NewCPUIntensive takes a slice of samples and returns a Dataset
built with them. A cpu-intensive dataset is an implementation that
instead of replicating the samples when subsetting, stores the
applying feature criteria to define the subset and keeps the same
sample slice. This can achieve a drastic reduction in memory use
that comes at the cost of CPU time: every calculation that goes over
the samples of the dataset will apply the feature criteria of the dataset
on all original samples (the ones provided to this method).
*/
func NewCPUIntensive(samples []Sample) Dataset {
	return &cpuIntensiveSubsettingDataset{nil, nil, samples, []feature.Criterion{}}
}

/*
MajorityLabel takes a context and a dataset and returns the most frequent
label on the dataset, breaking frequency ties towards the smallest label
value so the result is deterministic. It returns ErrEmptyDataset if the
dataset has no samples.
*/
func MajorityLabel(ctx context.Context, ds Dataset) (int, error) {
	counts, err := ds.LabelCounts(ctx)
	if err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, ErrEmptyDataset
	}
	var majority, majorityCount int
	first := true
	for label, count := range counts {
		if first || count > majorityCount || (count == majorityCount && label < majority) {
			majority = label
			majorityCount = count
			first = false
		}
	}
	return majority, nil
}

func labelEntropy(counts map[int]int) float64 {
	var total float64
	for _, c := range counts {
		total += float64(c)
	}
	if total == 0 {
		return 0.0
	}
	var result float64
	for _, c := range counts {
		if c > 0 {
			p := float64(c) / total
			result -= p * math.Log2(p)
		}
	}
	return result
}

func (s *memoryIntensiveSubsettingDataset) Count(ctx context.Context) (int, error) {
	return len(s.samples), nil
}

func (s *cpuIntensiveSubsettingDataset) Count(ctx context.Context) (int, error) {
	if s.count != nil {
		return *s.count, nil
	}
	var length int
	err := s.iterateOnDataset(ctx, func(_ Sample) (bool, error) {
		length++
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	s.count = &length
	return length, nil
}

func (s *memoryIntensiveSubsettingDataset) Entropy(ctx context.Context) (float64, error) {
	if s.entropy != nil {
		return *s.entropy, nil
	}
	counts, err := s.LabelCounts(ctx)
	if err != nil {
		return 0.0, err
	}
	result := labelEntropy(counts)
	s.entropy = &result
	return result, nil
}

func (s *cpuIntensiveSubsettingDataset) Entropy(ctx context.Context) (float64, error) {
	if s.entropy != nil {
		return *s.entropy, nil
	}
	counts, err := s.LabelCounts(ctx)
	if err != nil {
		return 0.0, err
	}
	result := labelEntropy(counts)
	s.entropy = &result
	return result, nil
}

func (s *memoryIntensiveSubsettingDataset) LabelCounts(ctx context.Context) (map[int]int, error) {
	result := make(map[int]int)
	for _, sample := range s.samples {
		result[sample.Label]++
	}
	return result, nil
}

func (s *cpuIntensiveSubsettingDataset) LabelCounts(ctx context.Context) (map[int]int, error) {
	result := make(map[int]int)
	err := s.iterateOnDataset(ctx, func(sample Sample) (bool, error) {
		result[sample.Label]++
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *memoryIntensiveSubsettingDataset) FeatureValues(ctx context.Context, f feature.Feature) ([]float64, error) {
	result := []float64{}
	encountered := make(map[float64]bool)
	for _, sample := range s.samples {
		if f.Index < 0 || f.Index >= len(sample.Values) {
			return nil, fmt.Errorf("%w: sample with %d values defines no value for %v", ErrInvalidInput, len(sample.Values), f)
		}
		v := sample.Values[f.Index]
		if !encountered[v] {
			encountered[v] = true
			result = append(result, v)
		}
	}
	return result, nil
}

func (s *cpuIntensiveSubsettingDataset) FeatureValues(ctx context.Context, f feature.Feature) ([]float64, error) {
	result := []float64{}
	encountered := make(map[float64]bool)
	err := s.iterateOnDataset(ctx, func(sample Sample) (bool, error) {
		if f.Index < 0 || f.Index >= len(sample.Values) {
			return false, fmt.Errorf("%w: sample with %d values defines no value for %v", ErrInvalidInput, len(sample.Values), f)
		}
		v := sample.Values[f.Index]
		if !encountered[v] {
			encountered[v] = true
			result = append(result, v)
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *memoryIntensiveSubsettingDataset) SubsetWith(ctx context.Context, fc feature.Criterion) (Dataset, error) {
	var samples []Sample
	for _, sample := range s.samples {
		ok, err := fc.SatisfiedBy(sample.Values)
		if err != nil {
			return nil, err
		}
		if ok {
			samples = append(samples, sample)
		}
	}
	return &memoryIntensiveSubsettingDataset{nil, samples, append([]feature.Criterion{fc}, s.criteria...)}, nil
}

func (s *cpuIntensiveSubsettingDataset) SubsetWith(ctx context.Context, fc feature.Criterion) (Dataset, error) {
	criteria := append([]feature.Criterion{fc}, s.criteria...)
	return &cpuIntensiveSubsettingDataset{nil, nil, s.samples, criteria}, nil
}

func (s *memoryIntensiveSubsettingDataset) Samples(ctx context.Context) ([]Sample, error) {
	return s.samples, nil
}

func (s *cpuIntensiveSubsettingDataset) Samples(ctx context.Context) ([]Sample, error) {
	var samples []Sample
	err := s.iterateOnDataset(ctx, func(sample Sample) (bool, error) {
		samples = append(samples, sample)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (s *memoryIntensiveSubsettingDataset) Criteria(ctx context.Context) ([]feature.Criterion, error) {
	return s.criteria, nil
}

func (s *cpuIntensiveSubsettingDataset) Criteria(ctx context.Context) ([]feature.Criterion, error) {
	return s.criteria, nil
}

func (s *cpuIntensiveSubsettingDataset) iterateOnDataset(ctx context.Context, lambda func(Sample) (bool, error)) error {
	for _, sample := range s.samples {
		skip := false
		for _, criterion := range s.criteria {
			ok, err := criterion.SatisfiedBy(sample.Values)
			if err != nil {
				return err
			}
			if !ok {
				skip = true
				break
			}
		}
		if !skip {
			ok, err := lambda(sample)
			if err != nil {
				return err
			}
			if !ok {
				break
			}
		}
	}
	return nil
}

/*
SortedFeatureValues takes a context, a dataset and a feature and returns
the distinct values the feature takes on the dataset in increasing order.
*/
func SortedFeatureValues(ctx context.Context, ds Dataset, f feature.Feature) ([]float64, error) {
	values, err := ds.FeatureValues(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.Float64s(values)
	return values, nil
}
