package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nitrolang/nitro/pkg/driver"
)

func newBuildCmd(backendPath *string, verbose *bool, registryAddr, cacheDBPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "build [PROJECT]",
		Short: "build the project into .build/<target-uuid>/",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := driver.Config{
				ProjectDir:   projectDirArg(args),
				BackendPath:  *backendPath,
				Verbose:      *verbose,
				RegistryAddr: *registryAddr,
				CacheDBPath:  *cacheDBPath,
			}
			result, err := driver.Build(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "built %d executable target(s), %d library target(s)\n",
				len(result.Package.Exes), len(result.Package.Libs))
			return nil
		},
	}
}
