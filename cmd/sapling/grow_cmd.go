package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"sapling"
	"sapling/dataset"
	"sapling/dataset/csv"
	dsjson "sapling/dataset/json"
	"sapling/dataset/mongodataset"
	"sapling/dataset/sqldataset"
	"sapling/dataset/sqldataset/pgadapter"
	"sapling/dataset/sqldataset/sqlite3adapter"
	"sapling/feature"
	fjson "sapling/feature/json"
	"sapling/feature/yaml"
	"sapling/queue"
	qjson "sapling/queue/json"
	"sapling/queue/redisq"
	"sapling/tree"
	tjson "sapling/tree/json"
	"sapling/tree/redisstore"

	"github.com/spf13/cobra"
	mgo "gopkg.in/mgo.v2"
	redis "gopkg.in/redis.v5"
)

const (
	emptyQueueSleep = 200 * time.Millisecond
	queueLockTTL    = 10 * time.Second
	queueTaskMaxRun = 5 * time.Minute
)

type growCmdConfig struct {
	*rootCmdConfig
	dataInput          string
	metadataInput      string
	output             string
	cpuIntensiveSet    bool
	memoryIntensiveSet bool
	maxDBConns         int
	workers            int
	queueAddr          string
	nodeStoreAddr      string
	ctx                context.Context
	cancelFunc         context.CancelFunc
}

func growCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &growCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "grow",
		Short: "Grow a tree from a set of data",
		Long:  `Grow a tree from a set of data to predict the class of its samples.`,
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
			features := md.Features()

			trainingSet, err := config.trainingSet(features, md.Label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}

			ns, err := config.nodeStore()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			defer ns.Close(config.Context())

			q, err := config.queue(features, trainingSet, ns)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			defer q.Stop(config.Context())

			count, err := trainingSet.Count(config.Context())
			if err != nil {
				fmt.Fprintf(os.Stderr, "counting training set samples: %v\n", err)
				os.Exit(6)
			}
			config.Logf("Growing tree from a set with %d samples and %d features to predict %s ...", count, len(features), md.Label)
			t, err := sapling.Grow(config.Context(), features, trainingSet, q, ns, config.workers, emptyQueueSleep)
			if err != nil {
				fmt.Fprintf(os.Stderr, "growing the tree: %v\n", err)
				os.Exit(7)
			}
			config.Logf("Done")
			config.Logf("%v", t)
			err = outputTree(config.Context(), config.output, t)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(8)
			}
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with data to use to grow the tree (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the columns of the input file (required)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to which the generated tree will be written in JSON format (defaults to STDOUT)")
	cmd.PersistentFlags().BoolVar(&(config.memoryIntensiveSet), "memory-intensive", false, "force the use of memory-intensive subsetting to decrease time at the cost of increasing memory use")
	cmd.PersistentFlags().BoolVar(&(config.cpuIntensiveSet), "cpu-intensive", false, "force the use of cpu-intensive subsetting to decrease memory use at the cost of increasing time")
	cmd.PersistentFlags().IntVar(&(config.maxDBConns), "max-db-conns", 0, "limit to DB connections opened at a time (defaults to 0: no limit)")
	cmd.PersistentFlags().IntVarP(&(config.workers), "workers", "w", 4, "number of workers developing queued nodes concurrently")
	cmd.PersistentFlags().StringVar(&(config.queueAddr), "queue", "", "host:port of a redis server to queue the node-developing tasks on (defaults to an in-memory queue)")
	cmd.PersistentFlags().StringVar(&(config.nodeStoreAddr), "node-store", "", "host:port of a redis server to store the tree nodes on (defaults to an in-memory store)")
	return cmd
}

func (gcc *growCmdConfig) Validate() error {
	if gcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if gcc.cpuIntensiveSet && gcc.memoryIntensiveSet {
		return fmt.Errorf("cannot set both memory-intensive and cpu-intensive flags at the same time")
	}
	if gcc.workers < 1 {
		return fmt.Errorf("workers flag was set to an invalid value: it must be a positive integer")
	}
	return nil
}

func (gcc *growCmdConfig) datasetGenerator() csv.DatasetGenerator {
	if gcc.memoryIntensiveSet {
		return csv.DatasetGenerator(dataset.NewMemoryIntensive)
	}
	if gcc.cpuIntensiveSet {
		return csv.DatasetGenerator(dataset.NewCPUIntensive)
	}
	return csv.DatasetGenerator(dataset.New)
}

func (gcc *growCmdConfig) trainingSet(features []feature.Feature, labelColumn string) (dataset.Dataset, error) {
	if strings.HasPrefix(gcc.dataInput, "postgresql://") {
		return gcc.postgreSQLTrainingSet(features, labelColumn)
	}
	if strings.HasPrefix(gcc.dataInput, "mongodb://") {
		return gcc.mongoDBTrainingSet(features, labelColumn)
	}
	if strings.HasSuffix(gcc.dataInput, ".db") {
		return gcc.sqlite3TrainingSet(features, labelColumn)
	}
	if gcc.dataInput == "" {
		gcc.Logf("Reading training set from STDIN...")
	} else {
		gcc.Logf("Opening %s to read training set...", gcc.dataInput)
	}
	trainingSet, err := csv.ReadDatasetFromFilePath(gcc.dataInput, features, labelColumn, gcc.datasetGenerator())
	if err != nil {
		return nil, fmt.Errorf("reading training set: %v", err)
	}
	return trainingSet, nil
}

func (gcc *growCmdConfig) sqlite3TrainingSet(features []feature.Feature, labelColumn string) (dataset.Dataset, error) {
	gcc.Logf("Creating SQLite3 adapter for file %s to read training set...", gcc.dataInput)
	adapter, err := sqlite3adapter.New(gcc.dataInput, gcc.maxDBConns)
	if err != nil {
		return nil, err
	}
	gcc.Logf("Opening dataset over SQLite3 adapter for file %s to read training set...", gcc.dataInput)
	return sqldataset.Open(gcc.Context(), adapter, features, labelColumn)
}

func (gcc *growCmdConfig) postgreSQLTrainingSet(features []feature.Feature, labelColumn string) (dataset.Dataset, error) {
	gcc.Logf("Creating PostgreSQL adapter for url %s to read training set...", gcc.dataInput)
	adapter, err := pgadapter.New(gcc.dataInput, gcc.maxDBConns)
	if err != nil {
		return nil, err
	}
	gcc.Logf("Opening dataset over PostgreSQL adapter for url %s to read training set...", gcc.dataInput)
	return sqldataset.Open(gcc.Context(), adapter, features, labelColumn)
}

func (gcc *growCmdConfig) mongoDBTrainingSet(features []feature.Feature, labelColumn string) (dataset.Dataset, error) {
	gcc.Logf("Dialing MongoDB at %s to read training set...", gcc.dataInput)
	session, err := mgo.Dial(gcc.dataInput)
	if err != nil {
		return nil, fmt.Errorf("dialing MongoDB at %s: %v", gcc.dataInput, err)
	}
	gcc.Logf("Opening dataset over MongoDB session for url %s to read training set...", gcc.dataInput)
	return mongodataset.Open(gcc.Context(), session, features, labelColumn)
}

func (gcc *growCmdConfig) nodeStore() (tree.NodeStore, error) {
	if gcc.nodeStoreAddr == "" {
		return tree.NewMemoryNodeStore(), nil
	}
	gcc.Logf("Connecting to redis at %s to store tree nodes...", gcc.nodeStoreAddr)
	rc := redis.NewClient(&redis.Options{Addr: gcc.nodeStoreAddr})
	err := rc.Ping().Err()
	if err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %v", gcc.nodeStoreAddr, err)
	}
	return redisstore.New(rc, "sapling:node", tjson.NewNodeEncodeDecoder()), nil
}

func (gcc *growCmdConfig) queue(features []feature.Feature, trainingSet dataset.Dataset, ns tree.NodeStore) (queue.Queue, error) {
	if gcc.queueAddr == "" {
		return queue.New(), nil
	}
	gcc.Logf("Connecting to redis at %s to queue node-developing tasks...", gcc.queueAddr)
	rc := redis.NewClient(&redis.Options{Addr: gcc.queueAddr})
	err := rc.Ping().Err()
	if err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %v", gcc.queueAddr, err)
	}
	ded := dsjson.New(trainingSet, gcc.dataInput, fjson.NewCriteriaEncodeDecoder(features))
	return redisq.New("sapling", rc, queueTaskMaxRun, queueLockTTL, qjson.New(features, ded, ns)), nil
}

func outputTree(ctx context.Context, outputPath string, t *tree.Tree) error {
	if outputPath == "" {
		return tjson.WriteJSONTree(ctx, os.Stdout, t)
	}
	return tjson.WriteJSONTreeToFile(ctx, outputPath, t)
}

func (gcc *growCmdConfig) Context() context.Context {
	gcc.setContextAndCancelFunc()
	return gcc.ctx
}

func (gcc *growCmdConfig) ContextCancelFunc() context.CancelFunc {
	gcc.setContextAndCancelFunc()
	return gcc.cancelFunc
}

func (gcc *growCmdConfig) setContextAndCancelFunc() {
	if gcc.ctx == nil {
		gcc.ctx, gcc.cancelFunc = context.WithCancel(context.Background())
	}
}
