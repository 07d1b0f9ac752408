package csv

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"sapling/dataset"
	"sapling/feature"
)

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	features := feature.List([]string{"age", "fare"})
	samples := []dataset.Sample{
		{Values: []float64{22, 7.25}, Label: 0},
		{Values: []float64{38, 71.2833}, Label: 1},
		{Values: []float64{26, 7.925}, Label: 1},
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf, features, "survived")
	if err != nil {
		t.Fatal("creating writer:", err)
	}
	n, err := w.Write(ctx, samples)
	if err != nil {
		t.Fatal("writing samples:", err)
	}
	if n != len(samples) {
		t.Error("expected to write", len(samples), "samples, got:", n)
	}
	if err := w.Flush(); err != nil {
		t.Fatal("flushing writer:", err)
	}
	if w.Count() != len(samples) {
		t.Error("expected writer count to be:", len(samples), "got:", w.Count())
	}

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	if header != "age,fare,survived" {
		t.Error("expected header to be: age,fare,survived got:", header)
	}

	ds, err := ReadDataset(&buf, features, "survived", dataset.New)
	if err != nil {
		t.Fatal("reading dataset:", err)
	}
	got, err := ds.Samples(ctx)
	if err != nil {
		t.Fatal("listing samples:", err)
	}
	if !reflect.DeepEqual(got, samples) {
		t.Error("expected samples to be:", samples, "got:", got)
	}
}

func TestReadDatasetShuffledColumns(t *testing.T) {
	ctx := context.Background()
	features := feature.List([]string{"age", "fare"})
	in := "survived,fare,age\n1,7.25,22\n0,8.05,35\n"

	ds, err := ReadDataset(strings.NewReader(in), features, "survived", dataset.New)
	if err != nil {
		t.Fatal("reading dataset:", err)
	}
	samples, err := ds.Samples(ctx)
	if err != nil {
		t.Fatal("listing samples:", err)
	}
	expected := []dataset.Sample{
		{Values: []float64{22, 7.25}, Label: 1},
		{Values: []float64{35, 8.05}, Label: 0},
	}
	if !reflect.DeepEqual(samples, expected) {
		t.Error("expected samples to be:", expected, "got:", samples)
	}
}

func TestReadDatasetUnknownColumn(t *testing.T) {
	features := feature.List([]string{"age"})
	in := "age,cabin,survived\n22,C85,1\n"

	_, err := ReadDataset(strings.NewReader(in), features, "survived", dataset.New)
	if err == nil {
		t.Error("expected an error on an undeclared column")
	}
}

func TestReadDatasetMissingLabelColumn(t *testing.T) {
	features := feature.List([]string{"age"})
	in := "age\n22\n"

	_, err := ReadDataset(strings.NewReader(in), features, "survived", dataset.New)
	if err == nil {
		t.Error("expected an error on a missing label column")
	}
}

func TestReadDatasetMissingFeatureColumn(t *testing.T) {
	features := feature.List([]string{"age", "fare"})
	in := "age,survived\n22,1\n"

	_, err := ReadDataset(strings.NewReader(in), features, "survived", dataset.New)
	if err == nil {
		t.Error("expected an error on a missing feature column")
	}
}

func TestReadDatasetNonNumericValue(t *testing.T) {
	features := feature.List([]string{"age"})
	in := "age,survived\ntwenty,1\n"

	_, err := ReadDataset(strings.NewReader(in), features, "survived", dataset.New)
	if err == nil {
		t.Error("expected an error on a non-numeric feature value")
	}
}

func TestReadDatasetBySampleStopsOnFalse(t *testing.T) {
	features := feature.List([]string{"age"})
	in := "age,survived\n1,0\n2,0\n3,1\n"

	var read int
	err := ReadDatasetBySample(strings.NewReader(in), features, "survived", func(i int, s dataset.Sample) (bool, error) {
		read++
		return read < 2, nil
	})
	if err != nil {
		t.Fatal("reading dataset:", err)
	}
	if read != 2 {
		t.Error("expected to stop after 2 samples, got:", read)
	}
}
