// SPDX-License-Identifier: Apache-2.0

package project

import (
	"archive/tar"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// Bundle packs output/<id> into a tar.xz archive at dest, or at
// output/<id>.tar.xz when dest is empty. Entries are named <id>/... and
// carry no timestamps, so two bundles of the same output are identical.
func (l Layout) Bundle(id, dest string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	src := l.ProjectOutput(id)
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("nothing to bundle: %w", err)
	}
	if dest == "" {
		dest = filepath.Join(l.Root, "output", id+".tar.xz")
	}

	file, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer file.Close()

	xw, err := xz.NewWriter(file)
	if err != nil {
		return "", fmt.Errorf("failed to create xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)

	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(id, rel))
		if d.IsDir() {
			return tw.WriteHeader(&tar.Header{Name: name + "/", Typeflag: tar.TypeDir, Mode: 0o755})
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return writeToTar(tw, name, data)
	})
	if walkErr != nil {
		return "", fmt.Errorf("failed to write bundle: %w", walkErr)
	}
	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish tar: %w", err)
	}
	if err := xw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return dest, file.Close()
}

func writeToTar(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Name:     name,
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(data)),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}
