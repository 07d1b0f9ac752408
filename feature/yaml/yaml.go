/*
Package yaml provides methods to parse dataset column metadata from YAML
documents: which column holds the class label, which columns must be
dropped before learning, how categorical values are encoded to numbers
and which value fills missing entries.
*/
package yaml

import (
	"fmt"
	"io/ioutil"
	"sort"

	"sapling/feature"
	yaml "gopkg.in/yaml.v2"
)

/*
Column describes how a raw dataset column is turned into a numeric
feature. Continuous columns are parsed as they come; columns with an
Encoding map have their raw values replaced by the mapped numbers.
*/
type Column struct {
	Continuous bool
	Encoding   map[string]float64
}

/*
Metadata describes the columns of a dataset: the name of the label
column, the columns to drop before learning, the value that fills
missing entries and a spec for every feature column.
*/
type Metadata struct {
	Label   string
	Drop    []string
	Fill    float64
	Columns map[string]Column
}

/*
ReadMetadata takes a slice of bytes with column metadata in YML and returns
the parsed Metadata or an error.
The YML is expected to be an object with a "label" property naming the class
column, an optional "drop" list of column names, an optional numeric "fill"
value for missing entries (defaults to 0) and a "features" object with a
property for each feature column: either the string 'continuous' or an object
mapping raw values to their numeric encodings.
*/
func ReadMetadata(md []byte) (*Metadata, error) {
	raw := struct {
		Label    string
		Drop     []string
		Fill     *float64
		Features map[string]interface{}
	}{}
	err := yaml.Unmarshal(md, &raw)
	if err != nil {
		return nil, fmt.Errorf("parsing yml metadata: %v", err)
	}
	if raw.Label == "" {
		return nil, fmt.Errorf("metadata file names no label column")
	}
	if raw.Features == nil {
		return nil, fmt.Errorf("metadata file has no feature information")
	}
	m := &Metadata{Label: raw.Label, Drop: raw.Drop, Columns: make(map[string]Column)}
	if raw.Fill != nil {
		m.Fill = *raw.Fill
	}
	for cn, spec := range raw.Features {
		switch spec := spec.(type) {
		case string:
			if spec != "continuous" {
				return nil, fmt.Errorf("invalid spec %q for feature column %s", spec, cn)
			}
			m.Columns[cn] = Column{Continuous: true}
		case map[interface{}]interface{}:
			encoding := make(map[string]float64)
			for k, v := range spec {
				value, err := numeric(v)
				if err != nil {
					return nil, fmt.Errorf("invalid encoding for value %v of feature column %s: %v", k, cn, err)
				}
				encoding[fmt.Sprintf("%v", k)] = value
			}
			m.Columns[cn] = Column{Encoding: encoding}
		default:
			return nil, fmt.Errorf("invalid feature column declaration of type %T", spec)
		}
	}
	return m, nil
}

/*
ReadMetadataFromFile takes a filepath string, reads its contents and uses
ReadMetadata to parse it and return the Metadata or an error.
If the file indicated by the filepath cannot be opened for reading an error
will be returned.
*/
func ReadMetadataFromFile(filepath string) (*Metadata, error) {
	md, err := ioutil.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading metadata yml file %s: %v", filepath, err)
	}
	m, err := ReadMetadata(md)
	if err != nil {
		err = fmt.Errorf("parsing metadata yml file %s: %v", filepath, err)
	}
	return m, err
}

/*
Features returns the feature columns of the metadata as a slice of
feature.Feature with indices assigned in lexicographical column-name
order. Backends without an inherent column order (SQL tables, MongoDB
collections) use this ordering so the same metadata always produces the
same feature indices.
*/
func (m *Metadata) Features() []feature.Feature {
	names := make([]string, 0, len(m.Columns))
	for cn := range m.Columns {
		names = append(names, cn)
	}
	sort.Strings(names)
	return feature.List(names)
}

/*
Dropped returns whether the column with the given name is on the
metadata's drop list.
*/
func (m *Metadata) Dropped(name string) bool {
	for _, d := range m.Drop {
		if d == name {
			return true
		}
	}
	return false
}

func numeric(v interface{}) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
