package uploader

const (
	// MinPartSize is the smallest part size multipart storage accepts for every part but the last.
	MinPartSize int64 = 5 * 1024 * 1024
	// MaxParts is the upper bound on parts in one multipart session.
	MaxParts = 10000
)

// PartRange is the half-open byte range [Start, End) of one part.
type PartRange struct {
	PartNumber int
	Start      int64
	End        int64
}

func (r PartRange) Size() int64 {
	return r.End - r.Start
}

// Plan splits totalSize bytes into ordered ranges of partSize bytes. The last
// range holds the remainder.
func Plan(totalSize, partSize int64) ([]PartRange, error) {
	if totalSize <= 0 {
		return nil, invalidInput("total size must be positive, got %d", totalSize)
	}
	if partSize <= 0 {
		return nil, invalidInput("part size must be positive, got %d", partSize)
	}

	count := PartCount(totalSize, partSize)
	ranges := make([]PartRange, count)
	for i := range count {
		start := int64(i) * partSize
		ranges[i] = PartRange{
			PartNumber: i + 1,
			Start:      start,
			End:        start + min(partSize, totalSize-start),
		}
	}
	return ranges, nil
}

// PartCount is ceil(totalSize / partSize). It does not overflow for any
// positive part size.
func PartCount(totalSize, partSize int64) int {
	if totalSize <= 0 || partSize <= 0 {
		return 0
	}
	count := totalSize / partSize
	if totalSize%partSize != 0 {
		count++
	}
	return int(count)
}

// PartSizeFor picks the part size a negotiation backend hands out: minPartSize,
// grown just enough to keep the part count within maxParts.
func PartSizeFor(totalSize, minPartSize int64, maxParts int) (int64, error) {
	if totalSize <= 0 {
		return 0, invalidInput("total size must be positive, got %d", totalSize)
	}
	if minPartSize <= 0 || maxParts <= 0 {
		return 0, invalidInput("part size %d and part limit %d must be positive", minPartSize, maxParts)
	}
	spread := totalSize / int64(maxParts)
	if totalSize%int64(maxParts) != 0 {
		spread++
	}
	return max(minPartSize, spread), nil
}
