package sapling

import (
	"context"
	"errors"
	"math"
	"testing"

	"sapling/dataset"
	"sapling/feature"
)

func datasetFromMatrix(t *testing.T, x [][]float64, y []int) dataset.Dataset {
	t.Helper()
	samples, err := dataset.FromMatrix(x, y)
	if err != nil {
		t.Fatal("building dataset:", err)
	}
	return dataset.New(samples)
}

func TestBestPartition(t *testing.T) {
	ctx := context.Background()
	s := datasetFromMatrix(t,
		[][]float64{{1}, {1}, {5}, {5}},
		[]int{0, 0, 1, 1},
	)
	features := feature.List([]string{"x0"})

	p, err := BestPartition(ctx, s, features)
	if err != nil {
		t.Fatal("partitioning dataset:", err)
	}
	if p == nil {
		t.Fatal("expected a partition, got nil")
	}
	if p.Feature.Index != 0 {
		t.Error("expected split on feature 0, got:", p.Feature.Index)
	}
	if p.Threshold != 3.0 {
		t.Error("expected threshold to be: 3.0 got:", p.Threshold)
	}
	if math.Abs(p.InformationGain()-1.0) > 1e-9 {
		t.Error("expected gain to be: 1.0 got:", p.InformationGain())
	}
	leftCount, err := p.Left.Count(ctx)
	if err != nil {
		t.Fatal("counting left subset:", err)
	}
	rightCount, err := p.Right.Count(ctx)
	if err != nil {
		t.Fatal("counting right subset:", err)
	}
	if leftCount != 2 || rightCount != 2 {
		t.Error("expected subsets of 2 and 2 samples, got:", leftCount, "and", rightCount)
	}
}

func TestBestPartitionFeatureTieBreak(t *testing.T) {
	ctx := context.Background()
	s := datasetFromMatrix(t,
		[][]float64{{1, 1}, {1, 1}, {5, 5}, {5, 5}},
		[]int{0, 0, 1, 1},
	)
	features := feature.List([]string{"x0", "x1"})

	p, err := BestPartition(ctx, s, features)
	if err != nil {
		t.Fatal("partitioning dataset:", err)
	}
	if p == nil {
		t.Fatal("expected a partition, got nil")
	}
	if p.Feature.Index != 0 {
		t.Error("expected tie to resolve to feature 0, got:", p.Feature.Index)
	}

	// order of the eligible features must not matter
	reversed := []feature.Feature{features[1], features[0]}
	p, err = BestPartition(ctx, s, reversed)
	if err != nil {
		t.Fatal("partitioning dataset:", err)
	}
	if p.Feature.Index != 0 {
		t.Error("expected tie to resolve to feature 0, got:", p.Feature.Index)
	}
}

func TestBestPartitionThresholdTieBreak(t *testing.T) {
	ctx := context.Background()
	s := datasetFromMatrix(t,
		[][]float64{{1}, {2}, {3}, {4}},
		[]int{0, 1, 0, 1},
	)
	features := feature.List([]string{"x0"})

	p, err := BestPartition(ctx, s, features)
	if err != nil {
		t.Fatal("partitioning dataset:", err)
	}
	if p == nil {
		t.Fatal("expected a partition, got nil")
	}
	if p.Threshold != 1.5 {
		t.Error("expected tie to resolve to threshold 1.5, got:", p.Threshold)
	}
}

func TestBestPartitionPureDataset(t *testing.T) {
	ctx := context.Background()
	s := datasetFromMatrix(t,
		[][]float64{{1}, {2}, {3}},
		[]int{1, 1, 1},
	)

	p, err := BestPartition(ctx, s, feature.List([]string{"x0"}))
	if err != nil {
		t.Fatal("partitioning dataset:", err)
	}
	if p != nil {
		t.Error("expected no partition for a pure dataset, got:", p)
	}
}

func TestBestPartitionNoGain(t *testing.T) {
	ctx := context.Background()
	s := datasetFromMatrix(t,
		[][]float64{{1}, {1}, {5}, {5}},
		[]int{0, 1, 0, 1},
	)

	p, err := BestPartition(ctx, s, feature.List([]string{"x0"}))
	if err != nil {
		t.Fatal("partitioning dataset:", err)
	}
	if p != nil {
		t.Error("expected no partition without information gain, got:", p)
	}
}

func TestBestPartitionConstantFeature(t *testing.T) {
	ctx := context.Background()
	s := datasetFromMatrix(t,
		[][]float64{{1}, {1}, {1}},
		[]int{0, 0, 1},
	)

	p, err := BestPartition(ctx, s, feature.List([]string{"x0"}))
	if err != nil {
		t.Fatal("partitioning dataset:", err)
	}
	if p != nil {
		t.Error("expected no partition on a constant feature, got:", p)
	}
}

func TestBestPartitionEmptyDataset(t *testing.T) {
	ctx := context.Background()
	s := dataset.New(nil)

	_, err := BestPartition(ctx, s, feature.List([]string{"x0"}))
	if !errors.Is(err, dataset.ErrInvalidInput) {
		t.Error("expected an invalid input error, got:", err)
	}
}

func TestBestPartitionNoFeatures(t *testing.T) {
	ctx := context.Background()
	s := datasetFromMatrix(t,
		[][]float64{{1}, {5}},
		[]int{0, 1},
	)

	_, err := BestPartition(ctx, s, nil)
	if !errors.Is(err, dataset.ErrInvalidInput) {
		t.Error("expected an invalid input error, got:", err)
	}
}

func TestNewPartition(t *testing.T) {
	ctx := context.Background()
	s := datasetFromMatrix(t,
		[][]float64{{1}, {2}, {5}},
		[]int{0, 0, 1},
	)
	f := feature.New(0, "x0")

	p, err := NewPartition(ctx, s, f, 1.5)
	if err != nil {
		t.Fatal("building partition:", err)
	}
	gainActual := 0.2516291673878229
	if math.Abs(p.InformationGain()-gainActual) > 1e-9 {
		t.Error("expected gain to be:", gainActual, "got:", p.InformationGain())
	}

	p, err = NewPartition(ctx, s, f, 2.5)
	if err != nil {
		t.Fatal("building partition:", err)
	}
	gainActual = 0.9182958340544896
	if math.Abs(p.InformationGain()-gainActual) > 1e-9 {
		t.Error("expected gain to be:", gainActual, "got:", p.InformationGain())
	}
}
