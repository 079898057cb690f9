package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nitrolang/nitro/pkg/driver"
	"github.com/nitrolang/nitro/pkg/manifest"
)

func newPackCmd(backendPath *string, verbose *bool, registryAddr, cacheDBPath *string) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "pack [PROJECT]",
		Short: "build the project and write its .npk container",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := driver.Config{
				ProjectDir:   projectDirArg(args),
				BackendPath:  *backendPath,
				Verbose:      *verbose,
				RegistryAddr: *registryAddr,
				CacheDBPath:  *cacheDBPath,
			}
			out := outPath
			if out == "" {
				m, err := manifest.Load(cfg.ProjectDir)
				if err != nil {
					return err
				}
				meta, err := m.Meta()
				if err != nil {
					return err
				}
				out = fmt.Sprintf("%s-%s.npk", meta.Name, meta.Version)
			}
			if err := driver.Pack(cfg, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output .npk path (default <name>-<version>.npk)")
	return cmd
}
