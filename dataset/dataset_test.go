package dataset

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"sapling/feature"
)

func testSamples(t *testing.T, x [][]float64, y []int) []Sample {
	t.Helper()
	samples, err := FromMatrix(x, y)
	if err != nil {
		t.Fatal("building samples:", err)
	}
	return samples
}

func TestEntropy(t *testing.T) {
	ctx := context.Background()
	for _, tc := range []struct {
		name    string
		y       []int
		entropy float64
	}{
		{"balanced", []int{0, 0, 1, 1}, 1.0},
		{"pure", []int{1, 1, 1, 1}, 0.0},
		{"skewed", []int{0, 0, 1}, 0.9182958340544896},
		{"three classes", []int{0, 1, 2}, 1.584962500721156},
	} {
		x := make([][]float64, len(tc.y))
		for i := range x {
			x[i] = []float64{float64(i)}
		}
		s := New(testSamples(t, x, tc.y))
		entropy, err := s.Entropy(ctx)
		if err != nil {
			t.Fatal(tc.name, ": computing entropy:", err)
		}
		if math.Abs(entropy-tc.entropy) > 1e-9 {
			t.Error(tc.name, ": expected entropy to be:", tc.entropy, "got:", entropy)
		}
	}
}

func TestEntropyEmptyDataset(t *testing.T) {
	ctx := context.Background()
	entropy, err := New(nil).Entropy(ctx)
	if err != nil {
		t.Fatal("computing entropy:", err)
	}
	if entropy != 0.0 {
		t.Error("expected entropy of an empty dataset to be: 0.0 got:", entropy)
	}
}

func TestLabelCounts(t *testing.T) {
	ctx := context.Background()
	s := New(testSamples(t,
		[][]float64{{1}, {2}, {3}, {4}},
		[]int{0, 1, 1, 1},
	))
	counts, err := s.LabelCounts(ctx)
	if err != nil {
		t.Fatal("counting labels:", err)
	}
	expected := map[int]int{0: 1, 1: 3}
	if !reflect.DeepEqual(counts, expected) {
		t.Error("expected label counts to be:", expected, "got:", counts)
	}
}

func TestMajorityLabel(t *testing.T) {
	ctx := context.Background()
	s := New(testSamples(t,
		[][]float64{{1}, {2}, {3}},
		[]int{2, 2, 5},
	))
	label, err := MajorityLabel(ctx, s)
	if err != nil {
		t.Fatal("taking majority label:", err)
	}
	if label != 2 {
		t.Error("expected majority label to be: 2 got:", label)
	}
}

func TestMajorityLabelTieBreak(t *testing.T) {
	ctx := context.Background()
	s := New(testSamples(t,
		[][]float64{{1}, {2}, {3}, {4}},
		[]int{9, 3, 3, 9},
	))
	label, err := MajorityLabel(ctx, s)
	if err != nil {
		t.Fatal("taking majority label:", err)
	}
	if label != 3 {
		t.Error("expected tie to resolve to the smallest label 3, got:", label)
	}
}

func TestMajorityLabelEmptyDataset(t *testing.T) {
	ctx := context.Background()
	_, err := MajorityLabel(ctx, New(nil))
	if !errors.Is(err, ErrEmptyDataset) {
		t.Error("expected an empty dataset error, got:", err)
	}
}

func TestSortedFeatureValues(t *testing.T) {
	ctx := context.Background()
	s := New(testSamples(t,
		[][]float64{{5}, {1}, {5}, {3}},
		[]int{0, 0, 1, 1},
	))
	values, err := SortedFeatureValues(ctx, s, feature.New(0, "x0"))
	if err != nil {
		t.Fatal("listing feature values:", err)
	}
	expected := []float64{1, 3, 5}
	if !reflect.DeepEqual(values, expected) {
		t.Error("expected sorted distinct values to be:", expected, "got:", values)
	}
}

func TestSubsetWith(t *testing.T) {
	ctx := context.Background()
	f := feature.New(0, "x0")
	for _, generate := range []func([]Sample) Dataset{New, NewMemoryIntensive, NewCPUIntensive} {
		s := generate(testSamples(t,
			[][]float64{{1}, {2}, {3}, {4}},
			[]int{0, 0, 1, 1},
		))
		left, err := s.SubsetWith(ctx, feature.NewLessEqual(f, 2.5))
		if err != nil {
			t.Fatal("subsetting dataset:", err)
		}
		right, err := s.SubsetWith(ctx, feature.NewGreaterThan(f, 2.5))
		if err != nil {
			t.Fatal("subsetting dataset:", err)
		}
		leftCount, err := left.Count(ctx)
		if err != nil {
			t.Fatal("counting subset:", err)
		}
		rightCount, err := right.Count(ctx)
		if err != nil {
			t.Fatal("counting subset:", err)
		}
		if leftCount != 2 || rightCount != 2 {
			t.Error("expected subsets of 2 and 2 samples, got:", leftCount, "and", rightCount)
		}
		leftEntropy, err := left.Entropy(ctx)
		if err != nil {
			t.Fatal("computing subset entropy:", err)
		}
		if leftEntropy != 0.0 {
			t.Error("expected subset entropy to be: 0.0 got:", leftEntropy)
		}
		criteria, err := right.Criteria(ctx)
		if err != nil {
			t.Fatal("listing subset criteria:", err)
		}
		if len(criteria) != 1 {
			t.Error("expected subset to accumulate 1 criterion, got:", len(criteria))
		}
	}
}

func TestSubsetWithChain(t *testing.T) {
	ctx := context.Background()
	f := feature.New(0, "x0")
	for _, generate := range []func([]Sample) Dataset{NewMemoryIntensive, NewCPUIntensive} {
		s := generate(testSamples(t,
			[][]float64{{1}, {2}, {3}, {4}},
			[]int{0, 0, 1, 1},
		))
		subset, err := s.SubsetWith(ctx, feature.NewGreaterThan(f, 1.5))
		if err != nil {
			t.Fatal("subsetting dataset:", err)
		}
		subset, err = subset.SubsetWith(ctx, feature.NewLessEqual(f, 3.5))
		if err != nil {
			t.Fatal("subsetting subset:", err)
		}
		count, err := subset.Count(ctx)
		if err != nil {
			t.Fatal("counting subset:", err)
		}
		if count != 2 {
			t.Error("expected chained subset to have 2 samples, got:", count)
		}
		samples, err := subset.Samples(ctx)
		if err != nil {
			t.Fatal("listing subset samples:", err)
		}
		for _, sample := range samples {
			if sample.Values[0] <= 1.5 || sample.Values[0] > 3.5 {
				t.Error("sample", sample, "does not satisfy the subset criteria")
			}
		}
	}
}

func TestFromMatrixMismatchedLabels(t *testing.T) {
	_, err := FromMatrix([][]float64{{1}, {2}}, []int{0})
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected an invalid input error, got:", err)
	}
}

func TestFromMatrixRaggedRows(t *testing.T) {
	_, err := FromMatrix([][]float64{{1}, {2, 3}}, []int{0, 1})
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected an invalid input error, got:", err)
	}
}
