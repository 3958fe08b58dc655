package imgio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Sequence is an image series stored as individual files spread across
// one or more ordered folders. Frame num 0 is the first file (by name)
// of the first folder; numbering continues across folder boundaries.
type Sequence struct {
	Folders   []string
	Extension string
	files     []string
}

// NewSequence scans the folders for files with the given extension
// (e.g. ".png") and builds the num -> file mapping.
func NewSequence(folders []string, extension string) (*Sequence, error) {
	if len(folders) == 0 {
		return nil, fmt.Errorf("no folders given")
	}
	s := &Sequence{Folders: folders, Extension: strings.ToLower(extension)}
	for _, folder := range folders {
		entries, err := os.ReadDir(folder)
		if err != nil {
			return nil, fmt.Errorf("scan folder %s: %w", folder, err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.ToLower(filepath.Ext(e.Name())) != s.Extension {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			s.files = append(s.files, filepath.Join(folder, name))
		}
	}
	if len(s.files) == 0 {
		return nil, fmt.Errorf("no %s files found in %v", extension, folders)
	}
	return s, nil
}

func (s *Sequence) Len() int { return len(s.files) }

// File returns the path backing frame num.
func (s *Sequence) File(num int) (string, error) {
	if num < 0 || num >= len(s.files) {
		return "", fmt.Errorf("frame %d out of range (%d files)", num, len(s.files))
	}
	return s.files[num], nil
}

func (s *Sequence) Read(num int) (Gray, error) {
	path, err := s.File(num)
	if err != nil {
		return Gray{}, err
	}
	return DecodeFile(path)
}

// DecodeFile reads a single image file into a Gray grid. Formats the
// registered pure-Go decoders cannot handle (camera RAW, exotic TIFF
// variants) fall through to the ImageMagick reader.
func DecodeFile(path string) (Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return Gray{}, err
	}
	img, _, derr := image.Decode(f)
	f.Close()
	if derr == nil {
		return FromImage(img), nil
	}
	g, merr := readMagick(path)
	if merr != nil {
		return Gray{}, fmt.Errorf("decode %s: %w", path, derr)
	}
	return g, nil
}
