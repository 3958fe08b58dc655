package imgio

import (
	"fmt"
	"sync"
)

// FrameSource provides frames of an image series by num, the ordinal
// identifier starting at 0 in the first folder (or slice 0 of a stack).
// Implementations must be safe for concurrent Read calls.
type FrameSource interface {
	Read(num int) (Gray, error)
	Len() int
}

// SubStack selects the frame ids start..end (exclusive) with the given
// stride. end <= 0 means the full length of the source.
func SubStack(src FrameSource, start, end, skip int) []int {
	if end <= 0 || end > src.Len() {
		end = src.Len()
	}
	if skip < 1 {
		skip = 1
	}
	var nums []int
	for n := start; n < end; n += skip {
		nums = append(nums, n)
	}
	return nums
}

// MemSource serves pre-built frames from memory. Used in tests and for
// live-captured series.
type MemSource struct {
	Frames []Gray
}

func (m *MemSource) Read(num int) (Gray, error) {
	if num < 0 || num >= len(m.Frames) {
		return Gray{}, fmt.Errorf("frame %d out of range (%d frames)", num, len(m.Frames))
	}
	return m.Frames[num], nil
}

func (m *MemSource) Len() int { return len(m.Frames) }

// Transformed wraps a source with a pure image transform applied on
// every read, so that analyses see transformed frames without knowing
// about the transform pipeline.
type Transformed struct {
	Src FrameSource
	Fn  func(Gray) Gray
}

func (t *Transformed) Read(num int) (Gray, error) {
	img, err := t.Src.Read(num)
	if err != nil {
		return Gray{}, err
	}
	return t.Fn(img), nil
}

func (t *Transformed) Len() int { return t.Src.Len() }

// Cached keeps up to size decoded frames in memory, evicting in FIFO
// order. Reads of the same num hit the underlying source only once as
// long as the entry has not been evicted.
type Cached struct {
	src  FrameSource
	size int

	mu    sync.Mutex
	cache map[int]Gray
	order []int
}

func NewCached(src FrameSource, size int) *Cached {
	if size < 1 {
		size = 1
	}
	return &Cached{
		src:   src,
		size:  size,
		cache: make(map[int]Gray, size),
	}
}

func (c *Cached) Read(num int) (Gray, error) {
	c.mu.Lock()
	if img, ok := c.cache[num]; ok {
		c.mu.Unlock()
		return img, nil
	}
	c.mu.Unlock()

	img, err := c.src.Read(num)
	if err != nil {
		return Gray{}, err
	}

	c.mu.Lock()
	if _, ok := c.cache[num]; !ok {
		if len(c.order) >= c.size {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.cache, oldest)
		}
		c.cache[num] = img
		c.order = append(c.order, num)
	}
	c.mu.Unlock()
	return img, nil
}

func (c *Cached) Len() int { return c.src.Len() }
