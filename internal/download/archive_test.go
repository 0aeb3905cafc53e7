package download

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestPackageZip(t *testing.T) {
	dir := t.TempDir()

	first := filepath.Join(dir, "one.mp3")
	second := filepath.Join(dir, "two.mp3")
	if err := os.WriteFile(first, []byte("first audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("second audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	zipPath := filepath.Join(dir, "playlist_abcd1234.zip")
	if err := packageZip(zipPath, []string{first, second}); err != nil {
		t.Fatalf("packageZip() returned error: %v", err)
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("OpenReader() returned error: %v", err)
	}
	defer zr.Close()

	contents := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		contents[f.Name] = string(data)
	}

	if contents["one.mp3"] != "first audio" || contents["two.mp3"] != "second audio" {
		t.Errorf("archive contents = %v, expected flat entries with original bytes", contents)
	}
}

func TestPackageZip_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()

	present := filepath.Join(dir, "keep.mp3")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	zipPath := filepath.Join(dir, "out.zip")
	err := packageZip(zipPath, []string{filepath.Join(dir, "gone.mp3"), present})
	if err != nil {
		t.Fatalf("packageZip() returned error: %v", err)
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	if len(zr.File) != 1 || zr.File[0].Name != "keep.mp3" {
		t.Errorf("archive holds %d entries, expected only the readable file", len(zr.File))
	}
}
