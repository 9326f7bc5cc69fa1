package interval

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned for negative upstream or downstream padding.
var ErrInvalidWindow = errors.New("invalid window")

// Bounds provides chromosome lengths for clipping.
type Bounds interface {
	LengthOf(chrom string) (int64, error)
}

// ValidateWindow checks that upstream and downstream padding are non-negative.
func ValidateWindow(upstream, downstream int64) error {
	if upstream < 0 || downstream < 0 {
		return fmt.Errorf("%w: upstream=%d downstream=%d", ErrInvalidWindow, upstream, downstream)
	}
	return nil
}

// Expand pads iv by upstream and downstream bases relative to its 5'->3'
// orientation. Plus and unknown strands extend Start by upstream and End by
// downstream; minus strand swaps the two. The result is clipped to
// [0, length(chrom)] without error. Zero padding returns iv unchanged.
func Expand(iv GenomicInterval, upstream, downstream int64, bounds Bounds) (GenomicInterval, error) {
	if err := ValidateWindow(upstream, downstream); err != nil {
		return GenomicInterval{}, err
	}
	if upstream == 0 && downstream == 0 {
		return iv, nil
	}

	left, right := upstream, downstream
	if iv.Strand == Minus {
		left, right = downstream, upstream
	}

	length, err := bounds.LengthOf(iv.Chrom)
	if err != nil {
		return GenomicInterval{}, err
	}

	out := iv
	out.Start = max(iv.Start-left, 0)
	out.End = min(iv.End+right, length)
	return out, nil
}
