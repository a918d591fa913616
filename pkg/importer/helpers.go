// CLAUDE:SUMMARY Shared import utilities: HTTP download with retries, ZIP extraction, dictionary directory writer validated by compiling it.
package importer

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hazyhaar/entitycorrect/pkg/correct"
	"github.com/hazyhaar/entitycorrect/pkg/dict"
)

// downloadFile downloads url to dest with retries and timeout.
func downloadFile(ctx context.Context, url, dest string) error {
	client := &http.Client{Timeout: 10 * time.Minute}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, url)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				break
			}
			continue
		}

		f, err := os.Create(dest)
		if err != nil {
			resp.Body.Close()
			return fmt.Errorf("create file: %w", err)
		}

		_, copyErr := io.Copy(f, resp.Body)
		resp.Body.Close()
		closeErr := f.Close()

		if copyErr != nil {
			lastErr = copyErr
			continue
		}
		if closeErr != nil {
			return closeErr
		}
		return nil
	}
	return fmt.Errorf("download %s failed: %w", url, lastErr)
}

// unzipFile extracts a ZIP archive to destDir and returns the list of extracted file paths.
// Entry paths are flattened to their base name.
func unzipFile(src, destDir string) ([]string, error) {
	r, err := zip.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var paths []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}

		destPath := filepath.Join(destDir, filepath.Base(f.Name))
		if err := extractEntry(f, destPath); err != nil {
			return nil, err
		}
		paths = append(paths, destPath)
	}
	return paths, nil
}

func extractEntry(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return out.Close()
}

// pickDataFile returns the extracted file named member, or the first
// .tsv/.txt file when member is empty.
func pickDataFile(files []string, member string) (string, error) {
	for _, f := range files {
		base := filepath.Base(f)
		if member != "" {
			if base == member {
				return f, nil
			}
			continue
		}
		ext := strings.ToLower(filepath.Ext(base))
		if ext == ".tsv" || ext == ".txt" {
			return f, nil
		}
	}
	if member != "" {
		return "", fmt.Errorf("%s not found in archive", member)
	}
	return "", fmt.Errorf("no .tsv or .txt file in archive")
}

// writeDict writes records as a UTF-8 dictionary directory under
// outputDir/m.ID. The directory is staged next to its destination and only
// replaces it once it compiles with the manifest settings.
func writeDict(outputDir string, m *dict.Manifest, records []dict.Record) error {
	dictDir := filepath.Join(outputDir, m.ID)
	stage := filepath.Join(outputDir, "."+m.ID+".tmp")
	if err := os.RemoveAll(stage); err != nil {
		return err
	}
	if err := ensureDir(stage); err != nil {
		return err
	}
	defer os.RemoveAll(stage)

	m.DataFile = "synonyms.tsv"
	m.Format.Encoding = ""

	f, err := os.Create(filepath.Join(stage, m.DataFile))
	if err != nil {
		return fmt.Errorf("create data file: %w", err)
	}
	if err := dict.WriteTSV(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := dict.SaveGob(records, filepath.Join(stage, "data.gob")); err != nil {
		return fmt.Errorf("save gob: %w", err)
	}
	if err := dict.WriteManifest(stage, m); err != nil {
		return err
	}

	if _, _, err := correct.LoadEngine(stage); err != nil {
		return fmt.Errorf("validate %s: %w", m.ID, err)
	}

	if err := os.RemoveAll(dictDir); err != nil {
		return err
	}
	return os.Rename(stage, dictDir)
}

// ensureDir creates a directory if it doesn't exist.
func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
