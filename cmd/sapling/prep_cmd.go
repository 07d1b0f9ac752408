package main

import (
	"context"
	"fmt"
	"os"

	"sapling/dataset/prep"
	"sapling/feature/yaml"

	"github.com/spf13/cobra"
)

type prepCmdConfig struct {
	*rootCmdConfig
	dataInput     string
	metadataInput string
	output        string
}

func prepCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &prepCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "prep",
		Short: "Prepare a raw CSV set for growing",
		Long:  `Prepare a raw CSV set for growing: drop ignored columns, encode categorical values as numbers and fill missing entries`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx := context.Background()
			config.Logf("Reading metadata at %s...", config.metadataInput)
			md, err := yaml.ReadMetadataFromFile(config.metadataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			config.Logf("Metadata read")
			if config.dataInput == "" {
				config.Logf("Preparing raw set from STDIN...")
			} else {
				config.Logf("Preparing raw set at %s...", config.dataInput)
			}
			count, err := prep.ProcessFile(ctx, config.dataInput, config.output, md)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			config.Logf("Done")
			config.Logf("Prepared %d samples", count)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.dataInput), "input", "i", "", "path to a raw input CSV file to prepare (defaults to STDIN)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the columns of the input file (required)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path to a file to dump the prepared set (defaults to STDOUT)")
	return cmd
}

func (pcc *prepCmdConfig) Validate() error {
	if pcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return nil
}
