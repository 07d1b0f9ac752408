package main

import (
	"context"
	"fmt"
	"os"

	"sapling/tree"
	"sapling/tree/json"

	"github.com/spf13/cobra"
)

type treeCmdConfig struct {
	*rootCmdConfig
	treeInput  string
	ctx        context.Context
	cancelFunc context.CancelFunc
}

func treeCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &treeCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Manage classification trees",
		Long:  `Manage classification trees and use them to predict the class of samples`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			t, err := loadTree(config.Context(), config.treeInput)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			fmt.Println(t)
		},
	}
	cmd.AddCommand(growCmd(rootConfig), testCmd(rootConfig), predictCmd(rootConfig))
	cmd.Flags().StringVarP(&(config.treeInput), "tree", "t", "", "path to a file from which the tree to show will be read and parsed as JSON (required)")
	return cmd
}

func (tcc *treeCmdConfig) Validate() error {
	if tcc.treeInput == "" {
		return fmt.Errorf("required tree flag was not set")
	}
	return nil
}

func loadTree(ctx context.Context, filepath string) (*tree.Tree, error) {
	t, err := json.ReadJSONTreeFromFile(ctx, filepath, tree.NewMemoryNodeStore())
	if err != nil {
		return nil, fmt.Errorf("parsing tree in JSON from %s: %v", filepath, err)
	}
	return t, nil
}

func (tcc *treeCmdConfig) setContextAndCancelFunc() {
	if tcc.ctx == nil {
		tcc.ctx, tcc.cancelFunc = context.WithCancel(context.Background())
	}
}

func (tcc *treeCmdConfig) Context() context.Context {
	tcc.setContextAndCancelFunc()
	return tcc.ctx
}

func (tcc *treeCmdConfig) ContextCancelFunc() context.CancelFunc {
	tcc.setContextAndCancelFunc()
	return tcc.cancelFunc
}
