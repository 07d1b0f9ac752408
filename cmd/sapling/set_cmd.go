package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"sapling/dataset"
	"sapling/dataset/csv"
	"sapling/dataset/mongodataset"
	"sapling/dataset/sqldataset"
	"sapling/dataset/sqldataset/pgadapter"
	"sapling/dataset/sqldataset/sqlite3adapter"
	"sapling/feature"
	"sapling/feature/yaml"

	"github.com/spf13/cobra"
	mgo "gopkg.in/mgo.v2"
)

type setCmdConfig struct {
	*rootCmdConfig
	setInput      string
	metadataInput string
	setOutput     string
	ctx           context.Context
	cancelFunc    context.CancelFunc
}

type sampleWriter interface {
	Write(context.Context, []dataset.Sample) (int, error)
}

type writableSet interface {
	sampleWriter
	Flush() error
}

type flushableSampleWriter struct {
	sampleWriter
}

func setCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &setCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Manage sets of data",
		Long:  `Manage sets of data`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			config.Context()
			config.Logf("Reading metadata at %s...", config.metadataInput)
			md, err := yaml.ReadMetadataFromFile(config.metadataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			config.Logf("Metadata read")
			features := md.Features()

			output, err := config.OutputWriter(features, md.Label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}

			inputStream, errStream, err := config.InputStream(features, md.Label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}

			for s := range inputStream {
				_, err = output.Write(config.Context(), []dataset.Sample{s})
				if err != nil {
					config.ContextCancelFunc()()
					break
				}
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			err = <-errStream
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			config.Logf("Flushing output set...")
			err = output.Flush()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
			config.Logf("Done")
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.setInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the set to read (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the columns of the input file (required)")
	cmd.PersistentFlags().StringVarP(&(config.setOutput), "output", "o", "", "path to a CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL to dump the output set (defaults to STDOUT in CSV)")
	cmd.AddCommand(splitCmd(rootConfig))
	return cmd
}

func (scc *setCmdConfig) Validate() error {
	if scc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return nil
}

func (scc *setCmdConfig) OutputWriter(features []feature.Feature, labelColumn string) (writableSet, error) {
	var outputFile *os.File
	var err error
	if scc.setOutput != "" {
		if strings.HasPrefix(scc.setOutput, "postgresql://") {
			return scc.PostgreSQLOutputWriter(features, labelColumn)
		}
		if strings.HasPrefix(scc.setOutput, "mongodb://") {
			return scc.MongoDBOutputWriter(features, labelColumn)
		}
		if strings.HasSuffix(scc.setOutput, ".db") {
			return scc.Sqlite3OutputWriter(features, labelColumn)
		}
		scc.Logf("Creating %s to dump output set...", scc.setOutput)
		outputFile, err = os.Create(scc.setOutput)
		if err != nil {
			return nil, err
		}
	} else {
		scc.Logf("Using STDOUT to dump output set...")
		outputFile = os.Stdout
	}
	scc.Logf("Preparing to write output set...")
	output, err := csv.NewWriter(outputFile, features, labelColumn)
	if err != nil {
		return nil, err
	}
	return output, nil
}

func (scc *setCmdConfig) InputStream(features []feature.Feature, labelColumn string) (<-chan dataset.Sample, <-chan error, error) {
	if strings.HasPrefix(scc.setInput, "postgresql://") {
		return scc.PostgreSQLInputStream(features, labelColumn)
	}
	if strings.HasPrefix(scc.setInput, "mongodb://") {
		return scc.MongoDBInputStream(features, labelColumn)
	}
	if strings.HasSuffix(scc.setInput, ".db") {
		return scc.Sqlite3InputStream(features, labelColumn)
	}
	if scc.setInput == "" {
		scc.Logf("Reading input set from STDIN and dumping it into output set...")
	} else {
		scc.Logf("Opening %s to read input set...", scc.setInput)
	}
	sampleStream := make(chan dataset.Sample)
	errStream := make(chan error)
	go func() {
		err := csv.ReadDatasetBySampleFromFilePath(scc.setInput, features, labelColumn, func(i int, s dataset.Sample) (bool, error) {
			select {
			case <-scc.Context().Done():
				return false, nil
			case sampleStream <- s:
			}
			return true, nil
		})
		if err != nil {
			go func() {
				errStream <- err
				close(errStream)
			}()
		} else {
			close(errStream)
		}
		close(sampleStream)
	}()
	return sampleStream, errStream, nil
}

func (scc *setCmdConfig) Sqlite3InputStream(features []feature.Feature, labelColumn string) (<-chan dataset.Sample, <-chan error, error) {
	scc.Logf("Creating SQLite3 adapter for file %s to read input set...", scc.setInput)
	adapter, err := sqlite3adapter.New(scc.setInput, 0)
	if err != nil {
		return nil, nil, err
	}
	scc.Logf("Opening dataset over SQLite3 adapter for file %s to read input set...", scc.setInput)
	ds, err := sqldataset.Open(scc.Context(), adapter, features, labelColumn)
	if err != nil {
		return nil, nil, err
	}
	sampleStream, errStream := ds.Read(scc.Context())
	return sampleStream, errStream, nil
}

func (scc *setCmdConfig) PostgreSQLInputStream(features []feature.Feature, labelColumn string) (<-chan dataset.Sample, <-chan error, error) {
	scc.Logf("Creating PostgreSQL adapter for url %s to read input set...", scc.setInput)
	adapter, err := pgadapter.New(scc.setInput, 0)
	if err != nil {
		return nil, nil, err
	}
	scc.Logf("Opening dataset over PostgreSQL adapter for url %s to read input set...", scc.setInput)
	ds, err := sqldataset.Open(scc.Context(), adapter, features, labelColumn)
	if err != nil {
		return nil, nil, err
	}
	sampleStream, errStream := ds.Read(scc.Context())
	return sampleStream, errStream, nil
}

func (scc *setCmdConfig) MongoDBInputStream(features []feature.Feature, labelColumn string) (<-chan dataset.Sample, <-chan error, error) {
	scc.Logf("Dialing MongoDB at %s to read input set...", scc.setInput)
	session, err := mgo.Dial(scc.setInput)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing MongoDB at %s: %v", scc.setInput, err)
	}
	scc.Logf("Opening dataset over MongoDB session for url %s to read input set...", scc.setInput)
	ds, err := mongodataset.Open(scc.Context(), session, features, labelColumn)
	if err != nil {
		return nil, nil, err
	}
	sampleStream, errStream := ds.Read(scc.Context())
	return sampleStream, errStream, nil
}

func (scc *setCmdConfig) Sqlite3OutputWriter(features []feature.Feature, labelColumn string) (writableSet, error) {
	scc.Logf("Creating SQLite3 adapter for file %s to dump output set...", scc.setOutput)
	adapter, err := sqlite3adapter.New(scc.setOutput, 0)
	if err != nil {
		return nil, err
	}
	scc.Logf("Opening dataset over SQLite3 adapter for file %s to dump output set...", scc.setOutput)
	ds, err := sqldataset.Create(scc.Context(), adapter, features, labelColumn)
	if err != nil {
		return nil, err
	}
	return &flushableSampleWriter{ds}, nil
}

func (scc *setCmdConfig) PostgreSQLOutputWriter(features []feature.Feature, labelColumn string) (writableSet, error) {
	scc.Logf("Creating PostgreSQL adapter for url %s to dump output set...", scc.setOutput)
	adapter, err := pgadapter.New(scc.setOutput, 0)
	if err != nil {
		return nil, err
	}
	scc.Logf("Opening dataset over PostgreSQL adapter for url %s to dump output set...", scc.setOutput)
	ds, err := sqldataset.Create(scc.Context(), adapter, features, labelColumn)
	if err != nil {
		return nil, err
	}
	return &flushableSampleWriter{ds}, nil
}

func (scc *setCmdConfig) MongoDBOutputWriter(features []feature.Feature, labelColumn string) (writableSet, error) {
	scc.Logf("Dialing MongoDB at %s to dump output set...", scc.setOutput)
	session, err := mgo.Dial(scc.setOutput)
	if err != nil {
		return nil, fmt.Errorf("dialing MongoDB at %s: %v", scc.setOutput, err)
	}
	scc.Logf("Opening dataset over MongoDB session for url %s to dump output set...", scc.setOutput)
	ds, err := mongodataset.Open(scc.Context(), session, features, labelColumn)
	if err != nil {
		return nil, err
	}
	return &flushableSampleWriter{ds}, nil
}

func (scc *setCmdConfig) Context() context.Context {
	scc.setContextAndCancelFunc()
	return scc.ctx
}

func (scc *setCmdConfig) ContextCancelFunc() context.CancelFunc {
	scc.setContextAndCancelFunc()
	return scc.cancelFunc
}

func (scc *setCmdConfig) setContextAndCancelFunc() {
	if scc.ctx == nil {
		scc.ctx, scc.cancelFunc = context.WithCancel(context.Background())
	}
}

func (fsw *flushableSampleWriter) Flush() error {
	return nil
}
