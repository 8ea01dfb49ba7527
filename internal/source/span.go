package source

import "strconv"

// Span is the half-open byte range [Start, End) of one file.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

// Empty reports a zero-width span, as used by insertions.
func (s Span) Empty() bool { return s.End <= s.Start }

// Len is the number of bytes covered.
func (s Span) Len() uint32 {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start
}

func (s Span) String() string {
	return strconv.FormatUint(uint64(s.File), 10) + ":" +
		strconv.FormatUint(uint64(s.Start), 10) + "-" +
		strconv.FormatUint(uint64(s.End), 10)
}

// Contains reports whether off is inside the span.
func (s Span) Contains(off uint32) bool { return off >= s.Start && off < s.End }

// Overlaps reports whether both spans cover a common byte of the same file.
func (s Span) Overlaps(other Span) bool {
	return s.File == other.File && s.Start < other.End && other.Start < s.End
}
