/*
Package prep turns raw CSV data into the numeric CSV datasets the
rest of the packages work with, applying the column metadata: dropped
columns are removed, categorical values are replaced by their numeric
encodings and missing entries are filled.
*/
package prep

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"sapling/dataset"
	dcsv "sapling/dataset/csv"
	"sapling/feature"
	"sapling/feature/yaml"
)

const undefinedValue = "?"

/*
Process takes a context, an io.Reader for a raw CSV stream, an io.Writer
and the column metadata, parses the samples from the reader applying the
metadata and writes them onto the writer as a numeric CSV dataset with
one column per feature in index order and the label column last. It
returns the number of processed samples and an error if the stream
cannot be parsed or a value cannot be turned into a number.

The header or first row of the raw CSV content is expected to contain
the label column, every feature column in the metadata and possibly
columns on the metadata's drop list, which are removed. Values equal to
the empty string or "?" are considered missing and are replaced by the
metadata's fill value, except on the label column, where missing values
are not allowed.
*/
func Process(ctx context.Context, r io.Reader, w io.Writer, md *yaml.Metadata) (int, error) {
	features := md.Features()
	featuresByName := make(map[string]feature.Feature)
	for _, f := range features {
		featuresByName[f.Name] = f
	}
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("reading header: %v", err)
	}
	columnFeatures, labelIndex, err := classifyColumns(header, featuresByName, md)
	if err != nil {
		return 0, err
	}
	cw, err := dcsv.NewWriter(w, features, md.Label)
	if err != nil {
		return 0, err
	}
	for l := 2; ; l++ {
		if err := ctx.Err(); err != nil {
			return cw.Count(), err
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return cw.Count(), fmt.Errorf("reading body: %v", err)
		}
		s, err := processRow(row, columnFeatures, labelIndex, md, len(features))
		if err != nil {
			return cw.Count(), fmt.Errorf("processing line %d: %v", l, err)
		}
		_, err = cw.Write(ctx, []dataset.Sample{s})
		if err != nil {
			return cw.Count(), err
		}
	}
	return cw.Count(), cw.Flush()
}

/*
ProcessFile takes a context, the filepaths for a raw CSV file and the
output numeric CSV file and the column metadata and uses Process to
prepare the raw file onto the output one. An input filepath equal to ""
reads from os.Stdin and an output filepath equal to "" writes to
os.Stdout. It returns the number of processed samples and an error if
the files cannot be opened or the processing fails.
*/
func ProcessFile(ctx context.Context, inPath, outPath string, md *yaml.Metadata) (int, error) {
	in := os.Stdin
	var err error
	if inPath != "" {
		in, err = os.Open(inPath)
		if err != nil {
			return 0, fmt.Errorf("reading raw dataset: %v", err)
		}
		defer in.Close()
	}
	out := os.Stdout
	if outPath != "" {
		out, err = os.Create(outPath)
		if err != nil {
			return 0, fmt.Errorf("creating prepared dataset: %v", err)
		}
		defer out.Close()
	}
	return Process(ctx, in, out, md)
}

func classifyColumns(header []string, featuresByName map[string]feature.Feature, md *yaml.Metadata) ([]*feature.Feature, int, error) {
	columnFeatures := make([]*feature.Feature, len(header))
	labelIndex := -1
	seen := make(map[string]bool)
	for i, name := range header {
		if name == md.Label {
			labelIndex = i
			continue
		}
		if md.Dropped(name) {
			continue
		}
		f, ok := featuresByName[name]
		if !ok {
			return nil, 0, fmt.Errorf("parsing header: column %s not declared on metadata", name)
		}
		if seen[name] {
			return nil, 0, fmt.Errorf("parsing header: duplicated column %s", name)
		}
		seen[name] = true
		cf := f
		columnFeatures[i] = &cf
	}
	if labelIndex < 0 {
		return nil, 0, fmt.Errorf("parsing header: no %q label column", md.Label)
	}
	if len(seen) != len(featuresByName) {
		return nil, 0, fmt.Errorf("parsing header: %d feature columns instead of %d", len(seen), len(featuresByName))
	}
	return columnFeatures, labelIndex, nil
}

func processRow(row []string, columnFeatures []*feature.Feature, labelIndex int, md *yaml.Metadata, width int) (dataset.Sample, error) {
	if len(row) != len(columnFeatures) {
		return dataset.Sample{}, fmt.Errorf("row has %d columns instead of %d", len(row), len(columnFeatures))
	}
	values := make([]float64, width)
	for i, f := range columnFeatures {
		if f == nil {
			continue
		}
		v, err := processValue(row[i], md.Columns[f.Name], md.Fill)
		if err != nil {
			return dataset.Sample{}, fmt.Errorf("column %s: %v", f.Name, err)
		}
		values[f.Index] = v
	}
	raw := row[labelIndex]
	if raw == "" || raw == undefinedValue {
		return dataset.Sample{}, fmt.Errorf("missing label value")
	}
	label, err := strconv.Atoi(raw)
	if err != nil {
		return dataset.Sample{}, fmt.Errorf("converting %q to integer label: %v", raw, err)
	}
	return dataset.NewSample(values, label), nil
}

func processValue(raw string, column yaml.Column, fill float64) (float64, error) {
	if raw == "" || raw == undefinedValue {
		return fill, nil
	}
	if column.Continuous {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("converting %q to float64: %v", raw, err)
		}
		return v, nil
	}
	v, ok := column.Encoding[raw]
	if !ok {
		return 0, fmt.Errorf("value %q has no encoding", raw)
	}
	return v, nil
}
