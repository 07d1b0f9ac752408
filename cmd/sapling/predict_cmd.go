package main

import (
	"context"
	"fmt"
	"os"

	"sapling/dataset/inputsample"
	"sapling/feature/yaml"
	"sapling/tree"

	"github.com/spf13/cobra"
)

type predictCmdConfig struct {
	*rootCmdConfig
	treeInput      string
	metadataInput  string
	undefinedValue string
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the class of a sample answering questions",
		Long:  `Use the loaded tree to predict the class of a sample answering a reduced set of questions about its features`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx := context.Background()
			md, err := yaml.ReadMetadataFromFile(config.metadataInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			t, err := loadTree(ctx, config.treeInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			prediction, err := predict(ctx, t, md, config.undefinedValue)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			label, prob := prediction.Label()
			fmt.Printf("Predicted class is %d with probability %.4f\n", label, prob)
			fmt.Printf("Predicted classes along their probabilities are %v\n", prediction)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features the tree was grown with (required)")
	cmd.PersistentFlags().StringVarP(&(config.treeInput), "tree", "t", "", "path to a file from which the tree to predict with will be read and parsed as JSON (required)")
	cmd.PersistentFlags().StringVarP(&(config.undefinedValue), "undefined-value", "u", "?", "value to input to define a sample's value for a feature as undefined")
	return cmd
}

func (pcc *predictCmdConfig) Validate() error {
	if pcc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	if pcc.treeInput == "" {
		return fmt.Errorf("required tree flag was not set")
	}
	return nil
}

func predict(ctx context.Context, t *tree.Tree, md *yaml.Metadata, undefinedValue string) (*tree.Prediction, error) {
	encodings := inputsample.Encodings{}
	for name, column := range md.Columns {
		if !column.Continuous && column.Encoding != nil {
			encodings[name] = column.Encoding
		}
	}
	requester := inputsample.WriterFeatureValueRequester(os.Stdout, undefinedValue)
	sr := inputsample.New(os.Stdin, t.Features, encodings, requester, undefinedValue, md.Fill)
	values, err := sr.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading sample: %v", err)
	}
	return t.Predict(ctx, values)
}
