package utils

import (
	"archive/tar"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// RemoveIO attempts to remove dir and optionally its content. Can ignore error,
// for example if the folder does not exist.
func RemoveIO(dir string, recursive, ignoreError bool) error {
	var err error
	if recursive {
		err = os.RemoveAll(dir)
	} else {
		err = os.Remove(dir)
	}

	if ignoreError {
		return nil
	}
	return err
}

// CreateTarArchive streams srcPath as a tar archive whose entries live under
// prefix. An empty prefix places entries at the archive root.
func CreateTarArchive(srcPath, prefix string) (io.ReadCloser, error) {
	if _, err := os.Stat(srcPath); err != nil {
		return nil, err
	}

	pipeReader, pipeWriter := io.Pipe()

	go func() {
		tarWriter := tar.NewWriter(pipeWriter)

		err := filepath.Walk(srcPath, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			relPath, err := filepath.Rel(srcPath, p)
			if err != nil {
				return err
			}
			name := path.Join(prefix, filepath.ToSlash(relPath))
			if name == "." {
				return nil
			}

			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			header.Name = name
			if info.IsDir() {
				header.Name += "/"
			}

			if err := tarWriter.WriteHeader(header); err != nil {
				return err
			}

			if !info.Mode().IsRegular() {
				return nil
			}
			file, err := os.Open(p)
			if err != nil {
				return err
			}
			defer file.Close()

			_, err = io.Copy(tarWriter, file)
			return err
		})

		if err == nil {
			err = tarWriter.Close()
		}
		pipeWriter.CloseWithError(err)
	}()

	return pipeReader, nil
}

// ExtractTarArchive extracts a tar archive into dstPath, rejecting entries that
// would escape it.
func ExtractTarArchive(reader io.Reader, dstPath string) error {
	tarReader := tar.NewReader(reader)

	for {
		header, err := tarReader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(dstPath, filepath.FromSlash(header.Name))
		if !strings.HasPrefix(target, filepath.Clean(dstPath)+string(os.PathSeparator)) {
			return errors.New("tar entry escapes destination: " + header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(header.Mode)|0o700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tarReader, os.FileMode(header.Mode)); err != nil {
				return err
			}
		}
	}
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, r)
	return err
}

// TrimOutput trims surrounding whitespace and caps the text at limit bytes.
func TrimOutput(b []byte, limit int) string {
	s := strings.TrimSpace(string(b))
	if limit > 0 && len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
