package stream

import (
	"strconv"
	"strings"
)

// ByteRange is a half-open request window resolved against a known size.
type ByteRange struct {
	Start int64
	End   int64 // inclusive
}

// Length returns the number of bytes covered.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ParseRange resolves a Range header against size. ok is false when the
// header is absent, malformed or out of bounds, in which case the whole file
// should be served.
func ParseRange(header string, size int64) (ByteRange, bool) {
	whole := ByteRange{Start: 0, End: size - 1}
	if size <= 0 {
		return whole, false
	}
	if !strings.HasPrefix(header, "bytes=") {
		return whole, false
	}

	spec := strings.TrimPrefix(header, "bytes=")
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		return whole, false
	}

	var start, end int64
	end = size - 1

	if parts[0] != "" {
		n, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil || n < 0 {
			return whole, false
		}
		start = n
	}
	if parts[1] != "" {
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil || n < 0 {
			return whole, false
		}
		end = n
	}

	if end > size-1 {
		end = size - 1
	}
	if start >= size || start > end {
		return whole, false
	}
	return ByteRange{Start: start, End: end}, true
}
