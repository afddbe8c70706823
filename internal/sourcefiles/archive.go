package sourcefiles

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type format int

const (
	formatZip format = iota
	formatTar
	formatTarGz
)

var archiveSuffixes = []struct {
	suffix string
	format format
}{
	{".tar.gz", formatTarGz},
	{".tgz", formatTarGz},
	{".tar", formatTar},
	{".zip", formatZip},
	{".jar", formatZip},
}

func archiveFormat(name string) (format, bool) {
	for _, s := range archiveSuffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.format, true
		}
	}
	return 0, false
}

// archiveBase strips the archive suffix, e.g. "protos.tar.gz" -> "protos"
func archiveBase(name string) string {
	base := filepath.Base(name)
	for _, s := range archiveSuffixes {
		if strings.HasSuffix(base, s.suffix) {
			return strings.TrimSuffix(base, s.suffix)
		}
	}
	return base
}

// extract replaces dest with the .proto entries of an archive
func extract(src string, f format, dest string) error {
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("failed to clear extraction directory: %w", err)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("failed to create extraction directory: %w", err)
	}

	switch f {
	case formatZip:
		return extractZip(src, dest)
	default:
		return extractTar(src, f == formatTarGz, dest)
	}
}

func extractZip(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || path.Ext(entry.Name) != ProtoExt {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return err
		}
		err = writeEntry(dest, entry.Name, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTar(src string, gzipped bool, dest string) error {
	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()

	var r io.Reader = file
	if gzipped {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return err
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if header.Typeflag != tar.TypeReg || path.Ext(header.Name) != ProtoExt {
			continue
		}
		if err := writeEntry(dest, header.Name, tr); err != nil {
			return err
		}
	}
}

// writeEntry copies an archive entry to dest, refusing names that escape it
func writeEntry(dest, name string, r io.Reader) error {
	clean := path.Clean(strings.TrimPrefix(name, "./"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("illegal archive entry: %s", name)
	}

	target := filepath.Join(dest, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
