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

type testCmdConfig struct {
	*rootCmdConfig
	treeInput     string
	dataInput     string
	metadataInput string
	ctx           context.Context
	cancelFunc    context.CancelFunc
}

func testCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &testCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the performance of a tree",
		Long:  `Test the performance of a tree against a test data set`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			config.Context()
			md, err := yaml.ReadMetadataFromFile(config.metadataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}

			testingSet, err := config.testingSet(md.Features(), md.Label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}

			t, err := loadTree(config.Context(), config.treeInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			count, err := testingSet.Count(config.Context())
			if err != nil {
				fmt.Fprintf(os.Stderr, "counting testing set samples: %v\n", err)
				os.Exit(5)
			}
			config.Logf("Testing tree against testset with %d samples...", count)
			successRate, errorCount, err := t.Test(config.Context(), testingSet)
			if err != nil {
				fmt.Fprintf(os.Stderr, "testing tree: %v\n", err)
				os.Exit(6)
			}
			config.Logf("Done")
			fmt.Printf("%f success rate, failed to make a prediction for %d samples\n", successRate, errorCount)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with data to test the tree against (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the columns of the input file (required)")
	cmd.PersistentFlags().StringVarP(&(config.treeInput), "tree", "t", "", "path to a file from which the tree to test will be read and parsed as JSON (required)")
	return cmd
}

func (tcc *testCmdConfig) Validate() error {
	if tcc.treeInput == "" {
		return fmt.Errorf("required tree flag was not set")
	}
	if tcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return nil
}

func (tcc *testCmdConfig) testingSet(features []feature.Feature, labelColumn string) (dataset.Dataset, error) {
	if strings.HasPrefix(tcc.dataInput, "postgresql://") {
		return tcc.postgreSQLTestingSet(features, labelColumn)
	}
	if strings.HasPrefix(tcc.dataInput, "mongodb://") {
		return tcc.mongoDBTestingSet(features, labelColumn)
	}
	if strings.HasSuffix(tcc.dataInput, ".db") {
		return tcc.sqlite3TestingSet(features, labelColumn)
	}
	if tcc.dataInput == "" {
		tcc.Logf("Reading testing set from STDIN...")
	} else {
		tcc.Logf("Opening %s to read testing set...", tcc.dataInput)
	}
	testingSet, err := csv.ReadDatasetFromFilePath(tcc.dataInput, features, labelColumn, csv.DatasetGenerator(dataset.New))
	if err != nil {
		return nil, fmt.Errorf("reading testing set: %v", err)
	}
	return testingSet, nil
}

func (tcc *testCmdConfig) sqlite3TestingSet(features []feature.Feature, labelColumn string) (dataset.Dataset, error) {
	tcc.Logf("Creating SQLite3 adapter for file %s to read testing set...", tcc.dataInput)
	adapter, err := sqlite3adapter.New(tcc.dataInput, 0)
	if err != nil {
		return nil, err
	}
	tcc.Logf("Opening dataset over SQLite3 adapter for file %s to read testing set...", tcc.dataInput)
	return sqldataset.Open(tcc.Context(), adapter, features, labelColumn)
}

func (tcc *testCmdConfig) postgreSQLTestingSet(features []feature.Feature, labelColumn string) (dataset.Dataset, error) {
	tcc.Logf("Creating PostgreSQL adapter for url %s to read testing set...", tcc.dataInput)
	adapter, err := pgadapter.New(tcc.dataInput, 0)
	if err != nil {
		return nil, err
	}
	tcc.Logf("Opening dataset over PostgreSQL adapter for url %s to read testing set...", tcc.dataInput)
	return sqldataset.Open(tcc.Context(), adapter, features, labelColumn)
}

func (tcc *testCmdConfig) mongoDBTestingSet(features []feature.Feature, labelColumn string) (dataset.Dataset, error) {
	tcc.Logf("Dialing MongoDB at %s to read testing set...", tcc.dataInput)
	session, err := mgo.Dial(tcc.dataInput)
	if err != nil {
		return nil, fmt.Errorf("dialing MongoDB at %s: %v", tcc.dataInput, err)
	}
	tcc.Logf("Opening dataset over MongoDB session for url %s to read testing set...", tcc.dataInput)
	return mongodataset.Open(tcc.Context(), session, features, labelColumn)
}

func (tcc *testCmdConfig) Context() context.Context {
	tcc.setContextAndCancelFunc()
	return tcc.ctx
}

func (tcc *testCmdConfig) ContextCancelFunc() context.CancelFunc {
	tcc.setContextAndCancelFunc()
	return tcc.cancelFunc
}

func (tcc *testCmdConfig) setContextAndCancelFunc() {
	if tcc.ctx == nil {
		tcc.ctx, tcc.cancelFunc = context.WithCancel(context.Background())
	}
}
