package epd

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"epdpanel/internal/config"
	appLog "epdpanel/internal/log"
)

// File writes every displayed frame to a PNG file.
type File struct {
	fs            afero.Fs
	path          string
	width, height int
}

// NewFile returns a file driver writing to path, or to config.DefaultOutput
// when path is empty.
func NewFile(fs afero.Fs, path string, width, height int) *File {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if path == "" {
		path = config.DefaultOutput
	}
	return &File{fs: fs, path: path, width: width, height: height}
}

func (f *File) Init() error {
	appLog.Debug("file display init", "path", f.path)
	return nil
}

func (f *File) Width() int  { return f.width }
func (f *File) Height() int { return f.height }

// Path is where frames are written.
func (f *File) Path() string {
	return f.path
}

// Buffer encodes img as PNG.
func (f *File) Buffer(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("epd: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Display replaces the output file through a temp file and a rename.
func (f *File) Display(buf []byte) error {
	dir := filepath.Dir(f.path)
	if err := f.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("epd: %w", err)
	}
	tmp, err := afero.TempFile(f.fs, dir, ".frame-*.png")
	if err != nil {
		return fmt.Errorf("epd: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		_ = f.fs.Remove(name)
		return fmt.Errorf("epd: write frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = f.fs.Remove(name)
		return fmt.Errorf("epd: write frame: %w", err)
	}
	if err := f.fs.Rename(name, f.path); err != nil {
		_ = f.fs.Remove(name)
		return fmt.Errorf("epd: write frame: %w", err)
	}
	appLog.Debug("frame written", "path", f.path, "bytes", len(buf))
	return nil
}

// Clear writes a white frame.
func (f *File) Clear() error {
	buf, err := f.Buffer(imaging.New(f.width, f.height, color.White))
	if err != nil {
		return err
	}
	return f.Display(buf)
}

func (f *File) Sleep() error { return nil }
func (f *File) Close() error { return nil }
