package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const gitignoreContents = ".build/\n"

const sampleExeSource = `class App;
impl App {
	@entry fn Main(): Int32 {
		0
	}
}
`

const sampleLibSource = `@pub class Box;
impl Box {
	@pub fn open(self: *Box): () {}
}
`

func newInitCmd() *cobra.Command {
	var asLibrary bool

	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "scaffold a new nitro project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := projectDirArg(args)
			return scaffoldProject(dir, asLibrary)
		},
	}
	cmd.Flags().BoolVar(&asLibrary, "lib", false, "scaffold a library instead of an executable")
	return cmd
}

func scaffoldProject(dir string, asLibrary bool) error {
	name := filepath.Base(absOrSelf(dir))
	if name == "." || name == "/" || name == "" {
		name = "app"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("init: creating %s: %w", dir, err)
	}

	srcDir := filepath.Join(dir, "src")
	if err := os.MkdirAll(srcDir, 0o755); err != nil {
		return fmt.Errorf("init: creating %s: %w", srcDir, err)
	}

	manifest := manifestTemplate(name, asLibrary)
	if err := writeIfAbsent(filepath.Join(dir, "Nitro.yml"), manifest); err != nil {
		return err
	}

	if asLibrary {
		if err := writeIfAbsent(filepath.Join(srcDir, "Box.nt"), sampleLibSource); err != nil {
			return err
		}
	} else {
		if err := writeIfAbsent(filepath.Join(srcDir, "App.nt"), sampleExeSource); err != nil {
			return err
		}
	}

	if err := writeIfAbsent(filepath.Join(dir, ".gitignore"), gitignoreContents); err != nil {
		return err
	}
	return nil
}

func manifestTemplate(name string, asLibrary bool) string {
	section := "executable:\n  sources: src\n"
	if asLibrary {
		section = "library:\n  sources: src\n"
	}
	return fmt.Sprintf("package:\n  name: %s\n  version: 0.1.0\n\n%s", name, section)
}

func writeIfAbsent(path, contents string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("init: writing %s: %w", path, err)
	}
	return nil
}

func absOrSelf(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}
