package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	goruntime "runtime"
	"time"

	"github.com/nitrolang/nitro/pkg/npk"
	"github.com/nitrolang/nitro/pkg/types"
)

// Pack builds the project then writes its .npk container to outPath,
// per spec §6's `pack` verb.
func Pack(cfg Config, outPath string) error {
	result, err := Build(cfg)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("driver: creating %s: %w", outPath, err)
	}
	defer f.Close()

	if err := npk.Pack(f, result.Package, time.Now()); err != nil {
		return fmt.Errorf("driver: packing %s: %w", outPath, err)
	}
	return nil
}

// Export builds the project then copies the current-host primitive
// target's binary into destDir, per spec §4.8's Export operation and §6.
// Errors if the host target only produced a system-library payload.
func Export(cfg Config, destDir string) error {
	result, err := Build(cfg)
	if err != nil {
		return err
	}

	host, err := types.HostPrimitiveTarget(goruntime.GOOS, goruntime.GOARCH)
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("driver: creating %s: %w", destDir, err)
	}

	if bin, ok := result.Package.Exes[host.ID]; ok {
		return copyFile(bin.Payload, filepath.Join(destDir, filepath.Base(bin.Payload)))
	}
	if bin, ok := result.Package.Libs[host.ID]; ok {
		if bin.Payload.SystemName != "" {
			return fmt.Errorf("driver: cannot export a system library (%s)", bin.Payload.SystemName)
		}
		return copyFile(bin.Payload.Path, filepath.Join(destDir, filepath.Base(bin.Payload.Path)))
	}
	return fmt.Errorf("driver: no build output for host target %s", host.Triple())
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("driver: opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("driver: creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("driver: copying %s to %s: %w", src, dst, err)
	}
	return nil
}
