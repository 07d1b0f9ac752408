package json

import (
	"context"
	"testing"

	"sapling/dataset"
	"sapling/feature"
	fjson "sapling/feature/json"
)

func testRootDataset(t *testing.T) dataset.Dataset {
	t.Helper()
	samples, err := dataset.FromMatrix(
		[][]float64{{1}, {2}, {3}, {4}},
		[]int{0, 0, 1, 1},
	)
	if err != nil {
		t.Fatal("building samples:", err)
	}
	return dataset.New(samples)
}

func TestDatasetRoundTrip(t *testing.T) {
	ctx := context.Background()
	features := feature.List([]string{"x0"})
	root := testRootDataset(t)
	ded := New(root, "train.csv", fjson.NewCriteriaEncodeDecoder(features))

	subset, err := root.SubsetWith(ctx, feature.NewGreaterThan(features[0], 1.5))
	if err != nil {
		t.Fatal("subsetting dataset:", err)
	}
	subset, err = subset.SubsetWith(ctx, feature.NewLessEqual(features[0], 3.5))
	if err != nil {
		t.Fatal("subsetting subset:", err)
	}

	data, err := ded.Encode(ctx, subset)
	if err != nil {
		t.Fatal("encoding dataset:", err)
	}
	got, err := ded.Decode(ctx, data)
	if err != nil {
		t.Fatal("decoding dataset:", err)
	}
	count, err := got.Count(ctx)
	if err != nil {
		t.Fatal("counting decoded dataset:", err)
	}
	if count != 2 {
		t.Error("expected decoded dataset to have 2 samples, got:", count)
	}
	samples, err := got.Samples(ctx)
	if err != nil {
		t.Fatal("listing decoded samples:", err)
	}
	for _, s := range samples {
		if s.Values[0] <= 1.5 || s.Values[0] > 3.5 {
			t.Error("sample", s, "does not satisfy the decoded criteria")
		}
	}
}

func TestDatasetDecodeWrongURI(t *testing.T) {
	ctx := context.Background()
	features := feature.List([]string{"x0"})
	ded := New(testRootDataset(t), "train.csv", fjson.NewCriteriaEncodeDecoder(features))

	_, err := ded.Decode(ctx, []byte(`{"uri":"other.csv","criteria":[]}`))
	if err == nil {
		t.Error("expected an error on a dataset with a different root URI")
	}
}
