package media

import (
	"fmt"
	"io"
	"os"
)

// Descriptor is an open media file plus the section of it that was
// requested. It implements fetch.Descriptor.
type Descriptor struct {
	file   *os.File
	offset int64
	length int64
}

// Stream derives a stream bounded to the descriptor's section. The stream
// owns the descriptor: closing it closes the file.
func (d *Descriptor) Stream() (io.ReadCloser, error) {
	info, err := d.file.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("media: %s is a directory", d.file.Name())
	}

	size := info.Size()
	if d.offset > size {
		return nil, fmt.Errorf("media: offset %d beyond end of %s (%d bytes)", d.offset, d.file.Name(), size)
	}
	n := size - d.offset
	if d.length >= 0 && d.length < n {
		n = d.length
	}

	return &sectionStream{
		SectionReader: io.NewSectionReader(d.file, d.offset, n),
		desc:          d,
	}, nil
}

// Close releases the underlying file.
func (d *Descriptor) Close() error {
	return d.file.Close()
}

type sectionStream struct {
	*io.SectionReader
	desc *Descriptor
}

func (s *sectionStream) Close() error {
	return s.desc.Close()
}
