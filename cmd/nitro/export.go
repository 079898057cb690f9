package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nitrolang/nitro/pkg/driver"
)

func newExportCmd(backendPath *string, verbose *bool, registryAddr, cacheDBPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export DEST [PROJECT]",
		Short: "build the project and copy the host-target binary into DEST",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := args[0]
			projectDir := "."
			if len(args) == 2 {
				projectDir = args[1]
			}
			cfg := driver.Config{
				ProjectDir:   projectDir,
				BackendPath:  *backendPath,
				Verbose:      *verbose,
				RegistryAddr: *registryAddr,
				CacheDBPath:  *cacheDBPath,
			}
			if err := driver.Export(cfg, dest); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported to %s\n", dest)
			return nil
		},
	}
}
