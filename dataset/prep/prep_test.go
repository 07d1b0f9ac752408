package prep

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	"sapling/dataset"
	dcsv "sapling/dataset/csv"
	"sapling/feature/yaml"
)

const testMetadata = `
label: survived
drop:
  - name
fill: 30
features:
  age: continuous
  sex:
    male: 0
    female: 1
`

func TestProcess(t *testing.T) {
	ctx := context.Background()
	md, err := yaml.ReadMetadata([]byte(testMetadata))
	if err != nil {
		t.Fatal("parsing metadata:", err)
	}
	raw := strings.Join([]string{
		"name,sex,age,survived",
		"Allen,male,22,0",
		"Heikkinen,female,?,1",
		"Futrelle,female,35,1",
	}, "\n")

	var out bytes.Buffer
	count, err := Process(ctx, strings.NewReader(raw), &out, md)
	if err != nil {
		t.Fatal("processing raw dataset:", err)
	}
	if count != 3 {
		t.Error("expected to process 3 samples, got:", count)
	}

	ds, err := dcsv.ReadDataset(&out, md.Features(), md.Label, dataset.New)
	if err != nil {
		t.Fatal("reading prepared dataset:", err)
	}
	samples, err := ds.Samples(ctx)
	if err != nil {
		t.Fatal("listing samples:", err)
	}
	expected := []dataset.Sample{
		{Values: []float64{22, 0}, Label: 0},
		{Values: []float64{30, 1}, Label: 1},
		{Values: []float64{35, 1}, Label: 1},
	}
	if !reflect.DeepEqual(samples, expected) {
		t.Error("expected samples to be:", expected, "got:", samples)
	}
}

func TestProcessMissingLabel(t *testing.T) {
	ctx := context.Background()
	md, err := yaml.ReadMetadata([]byte(testMetadata))
	if err != nil {
		t.Fatal("parsing metadata:", err)
	}
	raw := "name,sex,age,survived\nAllen,male,22,?\n"

	var out bytes.Buffer
	_, err = Process(ctx, strings.NewReader(raw), &out, md)
	if err == nil {
		t.Error("expected an error on a missing label value")
	}
}

func TestProcessUnknownEncoding(t *testing.T) {
	ctx := context.Background()
	md, err := yaml.ReadMetadata([]byte(testMetadata))
	if err != nil {
		t.Fatal("parsing metadata:", err)
	}
	raw := "name,sex,age,survived\nAllen,unknown,22,0\n"

	var out bytes.Buffer
	_, err = Process(ctx, strings.NewReader(raw), &out, md)
	if err == nil {
		t.Error("expected an error on a value without encoding")
	}
}

func TestProcessUndeclaredColumn(t *testing.T) {
	ctx := context.Background()
	md, err := yaml.ReadMetadata([]byte(testMetadata))
	if err != nil {
		t.Fatal("parsing metadata:", err)
	}
	raw := "name,sex,age,cabin,survived\nAllen,male,22,C85,0\n"

	var out bytes.Buffer
	_, err = Process(ctx, strings.NewReader(raw), &out, md)
	if err == nil {
		t.Error("expected an error on a column not declared on the metadata")
	}
}
