package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"sapling/dataset"
	"sapling/dataset/csv"
	"sapling/feature/yaml"

	"github.com/spf13/cobra"
)

type splitCmdConfig struct {
	setInput         string
	metadataInput    string
	setOutput        string
	splitOutput      string
	splitProbability int
}

func splitCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &splitCmdConfig{}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a set into two sets",
		Long:  `Split a set into an output set and a split set`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx := context.Background()
			rootConfig.Logf("Reading metadata at %s...", config.metadataInput)
			md, err := yaml.ReadMetadataFromFile(config.metadataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			rootConfig.Logf("Metadata read")
			features := md.Features()

			var outputFile *os.File
			if config.setOutput != "" {
				rootConfig.Logf("Creating %s to dump output set...", config.setOutput)
				outputFile, err = os.Create(config.setOutput)
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(3)
				}
				defer outputFile.Close()
			} else {
				rootConfig.Logf("Using STDOUT to dump output set...")
				outputFile = os.Stdout
			}
			rootConfig.Logf("Preparing to write output set...")
			output, err := csv.NewWriter(outputFile, features, md.Label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}

			rootConfig.Logf("Creating %s to dump split set...", config.splitOutput)
			splitOutputFile, err := os.Create(config.splitOutput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			defer splitOutputFile.Close()
			rootConfig.Logf("Preparing to write split output set...")
			splitOutput, err := csv.NewWriter(splitOutputFile, features, md.Label)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}

			randomizer := rand.New(rand.NewSource(time.Now().UnixNano()))
			splitter := func(i int, s dataset.Sample) (bool, error) {
				var err error
				if (100 * randomizer.Float32()) > float32(config.splitProbability) {
					_, err = output.Write(ctx, []dataset.Sample{s})
				} else {
					_, err = splitOutput.Write(ctx, []dataset.Sample{s})
				}
				if err != nil {
					return false, err
				}
				return true, nil
			}

			if config.setInput == "" {
				rootConfig.Logf("Reading input set from STDIN and splitting it into output and split output sets...")
			} else {
				rootConfig.Logf("Splitting input set at %s into output and split output sets...", config.setInput)
			}
			err = csv.ReadDatasetBySampleFromFilePath(config.setInput, features, md.Label, splitter)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
			rootConfig.Logf("Flushing output set...")
			err = output.Flush()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(8)
			}
			rootConfig.Logf("Flushing split set...")
			err = splitOutput.Flush()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(9)
			}
			rootConfig.Logf("Done")
			rootConfig.Logf("Input set with %d samples was split into sets with %d and %d samples", output.Count()+splitOutput.Count(), output.Count(), splitOutput.Count())
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.setInput), "input", "i", "", "path to an input CSV file with the set to split (defaults to STDIN)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the columns of the input file (required)")
	cmd.PersistentFlags().StringVarP(&(config.setOutput), "output", "o", "", "path to a file to dump the output set (defaults to STDOUT)")
	cmd.PersistentFlags().IntVarP(&(config.splitProbability), "split-probability", "p", 20, "probability as percent integer that a sample of the set will be assigned to the split set")
	cmd.PersistentFlags().StringVarP(&(config.splitOutput), "split-output", "s", "", "path to a file to dump the output of the split set (required)")
	return cmd
}

func (scc *splitCmdConfig) Validate() error {
	if scc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if scc.splitOutput == "" {
		return fmt.Errorf("required split-output flag was not set")
	}
	if scc.splitProbability <= 0 || scc.splitProbability > 100 {
		return fmt.Errorf("split-probability flag was set to an invalid value: it must be set to an integer between 1 and 100")
	}
	return nil
}
