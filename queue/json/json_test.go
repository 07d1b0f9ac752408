package json

import (
	"context"
	"testing"

	"sapling/dataset"
	dsjson "sapling/dataset/json"
	"sapling/feature"
	fjson "sapling/feature/json"
	"sapling/queue"
	"sapling/tree"
)

func TestTaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	features := feature.List([]string{"age", "fare"})
	samples, err := dataset.FromMatrix(
		[][]float64{{10, 1}, {20, 2}, {30, 3}, {40, 4}},
		[]int{0, 0, 1, 1},
	)
	if err != nil {
		t.Fatal("building samples:", err)
	}
	root := dataset.New(samples)
	subset, err := root.SubsetWith(ctx, feature.NewGreaterThan(features[0], 15))
	if err != nil {
		t.Fatal("subsetting dataset:", err)
	}

	ns := tree.NewMemoryNodeStore()
	n := &tree.Node{}
	if err := ns.Create(ctx, n); err != nil {
		t.Fatal("creating node:", err)
	}

	ted := New(features, dsjson.New(root, "train.csv", fjson.NewCriteriaEncodeDecoder(features)), ns)
	task := &queue.Task{
		Node:             n,
		Dataset:          subset,
		EligibleFeatures: features,
		FallbackLabel:    1,
	}

	data, err := ted.Encode(ctx, task)
	if err != nil {
		t.Fatal("encoding task:", err)
	}
	got, err := ted.Decode(ctx, data)
	if err != nil {
		t.Fatal("decoding task:", err)
	}
	if got.ID() != task.ID() {
		t.Error("expected task id to be:", task.ID(), "got:", got.ID())
	}
	if got.FallbackLabel != 1 {
		t.Error("expected fallback label to be: 1 got:", got.FallbackLabel)
	}
	if len(got.EligibleFeatures) != len(features) {
		t.Fatal("expected eligible features to survive the round trip, got:", got.EligibleFeatures)
	}
	count, err := got.Dataset.Count(ctx)
	if err != nil {
		t.Fatal("counting decoded dataset:", err)
	}
	if count != 3 {
		t.Error("expected decoded dataset to have 3 samples, got:", count)
	}
}

func TestTaskDecodeMissingNode(t *testing.T) {
	ctx := context.Background()
	features := feature.List([]string{"age"})
	root := dataset.New(nil)
	ted := New(features, dsjson.New(root, "train.csv", fjson.NewCriteriaEncodeDecoder(features)), tree.NewMemoryNodeStore())

	_, err := ted.Decode(ctx, []byte(`{"id":"missing","fs":[0],"fl":0,"ds":{"uri":"train.csv","criteria":[]}}`))
	if err == nil {
		t.Error("expected an error when the task node is not on the node store")
	}
}
