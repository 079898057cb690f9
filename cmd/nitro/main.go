// Command nitro is the bootstrap compiler + package manager front-end: the
// CLI dispatch for init/build/pack/export described in spec §6. All actual
// work happens in pkg/driver; this file is argument parsing and error
// pretty-printing only.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "nitro: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var backendPath string
	var verbose bool
	var registryAddr string
	var cacheDBPath string

	root := &cobra.Command{
		Use:           "nitro",
		Short:         "nitro - bootstrap compiler and package manager for L",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&backendPath, "backend", defaultBackendPath(), "path to the native codegen backend shared library")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print per-target build progress")
	root.PersistentFlags().StringVar(&registryAddr, "registry", os.Getenv("NITRO_REGISTRY"), "address of the package registry to fetch uncached dependencies from")
	root.PersistentFlags().StringVar(&cacheDBPath, "cache-db", "", "path to the registry fetch cache database (defaults to ~/.nitro/registry-cache.db)")

	root.AddCommand(
		newInitCmd(),
		newBuildCmd(&backendPath, &verbose, &registryAddr, &cacheDBPath),
		newPackCmd(&backendPath, &verbose, &registryAddr, &cacheDBPath),
		newExportCmd(&backendPath, &verbose, &registryAddr, &cacheDBPath),
	)
	return root
}

func defaultBackendPath() string {
	if p := os.Getenv("NITRO_BACKEND"); p != "" {
		return p
	}
	return "libnitro_backend.so"
}

func projectDirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
