package installer

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// extractZip extracts the archive at archivePath into dest, directories
// first, rejecting any entry whose cleaned path would escape dest.
func extractZip(archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(err, "opening archive")
	}
	defer r.Close()

	return safeExtract(dest, &r.Reader)
}

func safeExtract(dest string, r *zip.Reader) error {
	files := append([]*zip.File(nil), r.File...)
	sort.Slice(files, func(i, j int) bool {
		iDir := strings.HasSuffix(files[i].Name, "/")
		jDir := strings.HasSuffix(files[j].Name, "/")
		if iDir != jDir {
			return iDir
		}
		return files[i].Name < files[j].Name
	})

	for _, f := range files {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

// safeJoin joins dest with name, rejecting any result that would land
// outside dest after cleaning — the defense against `..` traversal
// entries required by the "no traversal" property.
func safeJoin(dest, name string) (string, error) {
	cleaned := filepath.Clean(filepath.Join(dest, name))
	destClean := filepath.Clean(dest)
	if cleaned != destClean && !strings.HasPrefix(cleaned, destClean+string(filepath.Separator)) {
		return "", errors.Errorf("archive entry %q escapes extraction root", name)
	}
	return cleaned, nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	perm := f.Mode().Perm()
	if perm == 0 {
		perm = 0o644
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return err
	}
	return nil
}
