package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	// VersionMajor is the major number in sapling's version
	VersionMajor = 0
	// VersionMinor is the minor number in sapling's version
	VersionMinor = 0
	// VersionPatch is the patch number in sapling's version
	VersionPatch = 1
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of sapling",
		Long:  `All software has versions. This is sapling's`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sapling v%d.%d.%d\n", VersionMajor, VersionMinor, VersionPatch)
		},
	}
}
