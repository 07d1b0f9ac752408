package yaml

import (
	"reflect"
	"testing"
)

const titanicMetadata = `
label: survived
drop:
  - name
  - ticket
fill: 29.5
features:
  age: continuous
  fare: continuous
  sex:
    male: 0
    female: 1
  pclass:
    1: 1
    2: 2
    3: 3
`

func TestReadMetadata(t *testing.T) {
	md, err := ReadMetadata([]byte(titanicMetadata))
	if err != nil {
		t.Fatal("parsing metadata:", err)
	}
	if md.Label != "survived" {
		t.Error("expected label to be: survived got:", md.Label)
	}
	if md.Fill != 29.5 {
		t.Error("expected fill to be: 29.5 got:", md.Fill)
	}
	if !md.Dropped("name") || !md.Dropped("ticket") {
		t.Error("expected name and ticket to be dropped")
	}
	if md.Dropped("age") {
		t.Error("expected age not to be dropped")
	}
	if len(md.Columns) != 4 {
		t.Fatal("expected 4 feature columns, got:", len(md.Columns))
	}
	if !md.Columns["age"].Continuous {
		t.Error("expected age to be continuous")
	}
	sex := md.Columns["sex"]
	if sex.Continuous {
		t.Error("expected sex to be categorical")
	}
	expected := map[string]float64{"male": 0, "female": 1}
	if !reflect.DeepEqual(sex.Encoding, expected) {
		t.Error("expected sex encoding to be:", expected, "got:", sex.Encoding)
	}
	pclass := md.Columns["pclass"]
	if pclass.Encoding["3"] != 3 {
		t.Error("expected pclass encoding for 3 to be: 3 got:", pclass.Encoding["3"])
	}
}

func TestMetadataFeatures(t *testing.T) {
	md, err := ReadMetadata([]byte(titanicMetadata))
	if err != nil {
		t.Fatal("parsing metadata:", err)
	}
	features := md.Features()
	names := make([]string, 0, len(features))
	for i, f := range features {
		if f.Index != i {
			t.Error("expected feature", f.Name, "to have index", i, "got:", f.Index)
		}
		names = append(names, f.Name)
	}
	expected := []string{"age", "fare", "pclass", "sex"}
	if !reflect.DeepEqual(names, expected) {
		t.Error("expected features in lexicographical order:", expected, "got:", names)
	}
}

func TestReadMetadataNoLabel(t *testing.T) {
	_, err := ReadMetadata([]byte("features:\n  age: continuous\n"))
	if err == nil {
		t.Error("expected an error on metadata without a label column")
	}
}

func TestReadMetadataNoFeatures(t *testing.T) {
	_, err := ReadMetadata([]byte("label: survived\n"))
	if err == nil {
		t.Error("expected an error on metadata without feature information")
	}
}

func TestReadMetadataInvalidSpec(t *testing.T) {
	_, err := ReadMetadata([]byte("label: survived\nfeatures:\n  age: discrete\n"))
	if err == nil {
		t.Error("expected an error on an invalid feature spec")
	}
}

func TestReadMetadataInvalidEncoding(t *testing.T) {
	_, err := ReadMetadata([]byte("label: survived\nfeatures:\n  sex:\n    male: yes\n"))
	if err == nil {
		t.Error("expected an error on a non-numeric encoding")
	}
}
