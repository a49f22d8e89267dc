package aps

const (
	// DefaultSinglePartLimit is the largest file uploaded in one part (100 MiB).
	DefaultSinglePartLimit int64 = 100 << 20
	// DefaultPartSize is the target chunk size for multipart uploads (10 MiB).
	DefaultPartSize int64 = 10 << 20
	// MaxParts is the provider limit on signed parts per upload.
	MaxParts = 10000
)

// Part is a contiguous byte range of a file sent to one signed URL.
type Part struct {
	Index  int
	Offset int64
	Length int64
}

// PartCount returns how many signed parts a file of size bytes needs.
// Files at or below singlePartLimit use one part. Larger files use
// ceil(size/partSize) parts, capped at MaxParts.
func PartCount(size, singlePartLimit, partSize int64) int {
	if size <= singlePartLimit || partSize <= 0 {
		return 1
	}

	n := (size + partSize - 1) / partSize
	if n > MaxParts {
		return MaxParts
	}
	return int(n)
}

// PartRanges splits size bytes into count ranges. Every part but the last
// holds floor(size/count) bytes and the last part takes the remainder.
func PartRanges(size int64, count int) []Part {
	if count < 1 {
		count = 1
	}

	chunk := size / int64(count)
	parts := make([]Part, count)

	for i := range count {
		offset := int64(i) * chunk
		length := chunk
		if i == count-1 {
			length = size - offset
		}
		parts[i] = Part{Index: i, Offset: offset, Length: length}
	}

	return parts
}
