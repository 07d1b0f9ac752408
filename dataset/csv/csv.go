package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"sapling/dataset"
	"sapling/feature"
)

/*
Writer is an interface for a destination to which samples
can be written to.
*/
type Writer interface {
	// Write will attempt to write the given number
	// of samples and will return the actually written
	// number of samples and an error (if not all samples
	// could be written)
	Write(context.Context, []dataset.Sample) (int, error)
	// Count returns the total number of samples written
	// to the writer
	Count() int
	// Flush ensures any pending written operations finish
	// before returning. It returns an error if that cannot
	// be ensured.
	Flush() error
}

/*
DatasetGenerator is a function that takes a slice of samples
and generates a dataset with them.
*/
type DatasetGenerator func([]dataset.Sample) dataset.Dataset

type csvWriter struct {
	count       int
	features    []feature.Feature
	labelColumn string
	w           *csv.Writer
}

/*
ReadDataset takes an io.Reader for a CSV stream, a slice of features, the
name of the label column and a DatasetGenerator and returns a
dataset.Dataset built with the DatasetGenerator and the samples parsed
from the reader or an error.

The header or first row of the CSV content is expected to consist of the
names of the features in the given slice plus the label column, in any
order. The rest of the rows should consist of numeric values for all the
columns, with integer values on the label column.
*/
func ReadDataset(reader io.Reader, features []feature.Feature, labelColumn string, dg DatasetGenerator) (dataset.Dataset, error) {
	samples := []dataset.Sample{}
	err := ReadDatasetBySample(reader, features, labelColumn, func(_ int, s dataset.Sample) (bool, error) {
		samples = append(samples, s)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return dg(samples), nil
}

/*
ReadDatasetBySample takes an io.Reader for a CSV stream, a slice of
features, the name of the label column and a lambda function on an
integer and a dataset.Sample that returns a boolean value.
It parses the samples from the reader and for each it calls the lambda
function with the sample and its index as parameters. If the lambda
function returns true, it will continue processing the next sample,
otherwise it will stop. An error is returned if something goes wrong
when reading the stream or parsing a sample.

The header or first row of the CSV content is expected to consist of the
names of the features in the given slice plus the label column, in any
order. The rest of the rows should consist of numeric values for all the
columns, with integer values on the label column.
*/
func ReadDatasetBySample(reader io.Reader, features []feature.Feature, labelColumn string, lambda func(int, dataset.Sample) (bool, error)) error {
	featuresByName := featureSliceToMap(features)
	r := csv.NewReader(reader)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("reading header: %v", err)
	}
	columnFeatures, labelIndex, err := parseColumnsFromCSVHeader(header, featuresByName, labelColumn)
	if err != nil {
		return err
	}
	for l := 2; ; l++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading body: %v", err)
		}
		sample, err := parseSampleFromCSVRow(row, columnFeatures, labelIndex, len(features))
		if err != nil {
			return fmt.Errorf("parsing line %d: %v", l, err)
		}
		ok, err := lambda(l-2, sample)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
	}
	return nil
}

/*
ReadDatasetFromFilePath takes a filepath string, a slice of features, the
name of the label column and a DatasetGenerator, opens the file to which
the filepath points to (os.Stdin if the filepath is "") and uses
ReadDataset to return a dataset.Dataset read from it or an error. It
will return an error if the given filepath cannot be opened for reading.
*/
func ReadDatasetFromFilePath(filepath string, features []feature.Feature, labelColumn string, dg DatasetGenerator) (dataset.Dataset, error) {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return nil, fmt.Errorf("reading dataset: %v", err)
		}
	}
	defer f.Close()
	ds, err := ReadDataset(f, features, labelColumn, dg)
	if err != nil {
		err = fmt.Errorf("parsing CSV file %s: %v", filepath, err)
	}
	return ds, err
}

/*
ReadDatasetBySampleFromFilePath takes a filepath string for a CSV stream,
a slice of features, the name of the label column and a lambda function
on an integer and a dataset.Sample that returns a boolean value. It opens
the file for reading (if the filepath is "" os.Stdin is used instead),
parses the samples from the reader and for each it calls the lambda
function with the sample and its index as parameters. If the lambda
function returns true, it will continue processing the next sample,
otherwise it will stop. An error is returned if something goes wrong
when reading the file or parsing a sample.
*/
func ReadDatasetBySampleFromFilePath(filepath string, features []feature.Feature, labelColumn string, lambda func(int, dataset.Sample) (bool, error)) error {
	var f *os.File
	var err error
	if filepath == "" {
		f = os.Stdin
	} else {
		f, err = os.Open(filepath)
		if err != nil {
			return fmt.Errorf("reading dataset: %v", err)
		}
	}
	defer f.Close()
	return ReadDatasetBySample(f, features, labelColumn, lambda)
}

/*
NewWriter takes an io.Writer, a slice of feature.Features and the name of
the label column and returns a Writer that will write any samples on the
io.Writer, with one column per feature in index order and the label
column last.
*/
func NewWriter(writer io.Writer, features []feature.Feature, labelColumn string) (Writer, error) {
	w := csv.NewWriter(writer)
	record := make([]string, 0, len(features)+1)
	record = append(record, feature.Names(features)...)
	record = append(record, labelColumn)
	err := w.Write(record)
	if err != nil {
		return nil, fmt.Errorf("writing CSV header: %v", err)
	}
	return &csvWriter{features: features, labelColumn: labelColumn, w: w}, nil
}

/*
WriteCSVDataset takes a context, a writer, a dataset.Dataset, a slice of
features and the name of the label column and dumps to the writer the
dataset in CSV format. It returns an error if something went wrong when
writing to the writer, or codifying the samples.
*/
func WriteCSVDataset(ctx context.Context, writer io.Writer, ds dataset.Dataset, features []feature.Feature, labelColumn string) error {
	cw, err := NewWriter(writer, features, labelColumn)
	if err != nil {
		return err
	}
	samples, err := ds.Samples(ctx)
	if err != nil {
		return err
	}
	_, err = cw.Write(ctx, samples)
	if err != nil {
		return err
	}
	return cw.Flush()
}

func parseColumnsFromCSVHeader(header []string, features map[string]feature.Feature, labelColumn string) ([]*feature.Feature, int, error) {
	columnFeatures := make([]*feature.Feature, len(header))
	labelIndex := -1
	seen := make(map[string]bool)
	for i, name := range header {
		if name == labelColumn {
			labelIndex = i
			continue
		}
		f, ok := features[name]
		if !ok {
			return nil, 0, fmt.Errorf("parsing header: reference to unknown feature %s", name)
		}
		if seen[name] {
			return nil, 0, fmt.Errorf("parsing header: duplicated feature %s", name)
		}
		seen[name] = true
		cf := f
		columnFeatures[i] = &cf
	}
	if labelIndex < 0 {
		return nil, 0, fmt.Errorf("parsing header: no %q label column", labelColumn)
	}
	if len(seen) != len(features) {
		return nil, 0, fmt.Errorf("parsing header: %d feature columns instead of %d", len(seen), len(features))
	}
	return columnFeatures, labelIndex, nil
}

func parseSampleFromCSVRow(row []string, columnFeatures []*feature.Feature, labelIndex, width int) (dataset.Sample, error) {
	if len(row) != len(columnFeatures) {
		return dataset.Sample{}, fmt.Errorf("row has %d columns instead of %d", len(row), len(columnFeatures))
	}
	values := make([]float64, width)
	for i, f := range columnFeatures {
		if f == nil {
			continue
		}
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return dataset.Sample{}, fmt.Errorf("converting %q to float64 for feature %s: %v", row[i], f.Name, err)
		}
		values[f.Index] = v
	}
	label, err := strconv.Atoi(row[labelIndex])
	if err != nil {
		return dataset.Sample{}, fmt.Errorf("converting %q to integer label: %v", row[labelIndex], err)
	}
	return dataset.NewSample(values, label), nil
}

func (cw *csvWriter) Count() int {
	return cw.count
}

func (cw *csvWriter) Write(ctx context.Context, samples []dataset.Sample) (int, error) {
	n := 0
	var err error
	for ; n < len(samples); n++ {
		err = cw.WriteSample(samples[n])
		if err != nil {
			return n, err
		}
	}
	return len(samples), nil
}

func (cw *csvWriter) WriteSample(sample dataset.Sample) error {
	record := make([]string, 0, len(cw.features)+1)
	for _, f := range cw.features {
		if f.Index >= len(sample.Values) {
			return fmt.Errorf("writing CSV row for sample %d: no value for feature %s", cw.count+1, f.Name)
		}
		record = append(record, strconv.FormatFloat(sample.Values[f.Index], 'f', -1, 64))
	}
	record = append(record, strconv.Itoa(sample.Label))
	err := cw.w.Write(record)
	if err != nil {
		return fmt.Errorf("writing CSV row for sample %d: %v", cw.count+1, err)
	}
	cw.count++
	return nil
}

func (cw *csvWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}

func featureSliceToMap(features []feature.Feature) map[string]feature.Feature {
	result := make(map[string]feature.Feature)
	for _, f := range features {
		result[f.Name] = f
	}
	return result
}
