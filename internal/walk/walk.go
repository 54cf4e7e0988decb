// Package walk gathers the detector and cracker's input file lists:
// explicit file arguments, a recursively-walked directory filtered to
// JPEG extensions, or one path per line on stdin.
package walk

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	// Registering these decoders lets Sniff recognise (and cleanly
	// reject) the other image container formats the rest of the pack's
	// examples support, rather than only distinguishing "JPEG" from
	// "not JPEG" by file extension.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var jpegExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
}

// Gather resolves the detector/cracker's input arguments into a flat
// file list: each literal file argument is kept as-is; a directory
// argument is recursed and filtered to .jpg/.jpeg; "-" reads one path
// per line from stdin.
func Gather(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		if arg == "-" {
			paths, err := readStdinList(os.Stdin)
			if err != nil {
				return nil, err
			}
			out = append(out, paths...)
			continue
		}
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("walk: %w", err)
		}
		if info.IsDir() {
			files, err := filesInDirectory(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func readStdinList(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}

func filesInDirectory(dir string) ([]string, error) {
	var out []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if jpegExtensions[strings.ToLower(filepath.Ext(path))] {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}
	return out, nil
}

// Sniff reports the image format of the given bytes by delegating to
// image.DecodeConfig's registry (JPEG plus anything registered via a
// blank import, so BMP/TIFF inputs are recognised and rejected with a
// clear format name rather than an opaque JPEG-decode failure).
func Sniff(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(newByteReader(data))
	if err != nil {
		return "", fmt.Errorf("walk: %w", err)
	}
	return format, nil
}

type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader { return &byteReader{data: data} }

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
