package imgio

import (
	"fmt"

	"gopkg.in/gographics/imagick.v3/imagick"
)

// TiffStack is an image series stored as a single multi-frame file.
// The whole stack is decoded into memory at construction, mirroring the
// fact that stacks are typically much smaller than file series.
type TiffStack struct {
	Path   string
	frames []Gray
}

// NewTiffStack decodes every frame of the stack at path.
func NewTiffStack(path string) (*TiffStack, error) {
	initMagick()
	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImage(path); err != nil {
		return nil, fmt.Errorf("read stack %s: %w", path, err)
	}

	n := int(mw.GetNumberImages())
	if n == 0 {
		return nil, fmt.Errorf("stack %s contains no frames", path)
	}

	st := &TiffStack{Path: path, frames: make([]Gray, 0, n)}
	mw.ResetIterator()
	for mw.NextImage() {
		g, err := wandToGray(mw)
		if err != nil {
			return nil, fmt.Errorf("decode stack frame %d of %s: %w", len(st.frames), path, err)
		}
		st.frames = append(st.frames, g)
	}
	if len(st.frames) == 0 {
		return nil, fmt.Errorf("stack %s contains no decodable frames", path)
	}
	return st, nil
}

func (t *TiffStack) Len() int { return len(t.frames) }

func (t *TiffStack) Read(num int) (Gray, error) {
	if num < 0 || num >= len(t.frames) {
		return Gray{}, fmt.Errorf("frame %d out of range (%d frames)", num, len(t.frames))
	}
	return t.frames[num], nil
}
