package monitor

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// IncrementalReader remembers a byte offset per session file so each call to
// ReadNew returns only records appended since the previous call.
type IncrementalReader struct {
	offsets map[string]int64
}

func NewIncrementalReader() *IncrementalReader {
	return &IncrementalReader{offsets: make(map[string]int64)}
}

// ReadNew returns the records appended to path since the last call. A file
// that cannot be opened or stat'd yields nothing and leaves the cursor alone.
// If the file has shrunk below the cursor it is re-read from the start.
func (r *IncrementalReader) ReadNew(path string) []*Record {
	records, _ := r.read(path)
	return records
}

// read is ReadNew that also reports whether the file was rewound because it
// was truncated or rotated.
func (r *IncrementalReader) read(path string) ([]*Record, bool) {
	key := filepath.Clean(path)

	f, err := os.Open(key)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, false
	}

	offset := r.offsets[key]
	rewound := false
	if info.Size() < offset {
		offset = 0
		rewound = true
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			return nil, false
		}
	}

	var records []*Record
	reader := bufio.NewReader(f)
	consumed := offset
	for {
		line, err := reader.ReadBytes('\n')
		// A final line without a terminator is left for the next poll.
		if len(line) > 0 && line[len(line)-1] == '\n' {
			consumed += int64(len(line))
			if rec := ParseLine(line); rec != nil {
				records = append(records, rec)
			}
		}
		if err != nil {
			break
		}
	}

	r.offsets[key] = consumed
	return records, rewound
}

// Remove drops the cursor for path.
func (r *IncrementalReader) Remove(path string) {
	delete(r.offsets, filepath.Clean(path))
}

// Offset returns the stored cursor for path, 0 if it has never been read.
func (r *IncrementalReader) Offset(path string) int64 {
	return r.offsets[filepath.Clean(path)]
}

func (r *IncrementalReader) Len() int { return len(r.offsets) }
