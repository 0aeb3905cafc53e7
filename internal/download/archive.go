package download

import (
	"archive/zip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// packageZip bundles files into a flat zip archive at zipPath. Files that
// cannot be opened are skipped with a log line.
func packageZip(zipPath string, files []string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create archive %s: %w", zipPath, err)
	}

	zw := zip.NewWriter(out)
	for _, path := range files {
		if err := addToZip(zw, path); err != nil {
			log.Printf("[skipping]: archive %s: %v", path, err)
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize archive %s: %w", zipPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive %s: %w", zipPath, err)
	}
	return nil
}

func addToZip(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
