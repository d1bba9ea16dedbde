package statistics

import (
	"fmt"

	"minnow/pkg/errs"
	"minnow/pkg/primitives"
)

// IntHistogram is a fixed-width histogram over one integer column.
// Values are bucketed by (v - min) / bucketSize; space and update time
// are constant in the number of values seen.
type IntHistogram struct {
	min        int32
	max        int32
	bucketSize int32
	counts     []int64
	ntups      int64
}

// NewIntHistogram splits [min, max] into the given number of equal
// buckets. min and max bound every value AddValue will ever see.
func NewIntHistogram(buckets int, min, max int32) (*IntHistogram, error) {
	if buckets < 1 {
		return nil, errs.Db("histogram needs at least one bucket")
	}
	if min > max {
		return nil, errs.Db("histogram range [%d, %d] is empty", min, max)
	}

	span := int64(max) - int64(min) + 1
	bucketSize := span / int64(buckets)
	if span%int64(buckets) != 0 {
		bucketSize++
	}

	return &IntHistogram{
		min:        min,
		max:        max,
		bucketSize: int32(bucketSize),
		counts:     make([]int64, buckets),
	}, nil
}

func (h *IntHistogram) bucketIndex(v int32) int {
	return int((v - h.min) / h.bucketSize)
}

func (h *IntHistogram) bucketMin(b int) int32 {
	return h.min + int32(b)*h.bucketSize
}

func (h *IntHistogram) bucketMax(b int) int32 {
	return h.min + int32(b+1)*h.bucketSize - 1
}

// AddValue folds v into the histogram. v must lie within [min, max].
func (h *IntHistogram) AddValue(v int32) error {
	if v < h.min || v > h.max {
		return errs.Db("value %d outside histogram range [%d, %d]", v, h.min, h.max)
	}
	h.counts[h.bucketIndex(v)]++
	h.ntups++
	return nil
}

// EstimateSelectivity returns the estimated fraction of recorded
// values satisfying `value op v`, in [0, 1]. The partial-bucket term
// is computed in float64 so small buckets do not round to zero.
func (h *IntHistogram) EstimateSelectivity(op primitives.Predicate, v int32) (float64, error) {
	if h.ntups == 0 {
		return 0.0, nil
	}

	switch op {
	case primitives.Equals:
		return h.equalitySelectivity(v), nil
	case primitives.NotEqual:
		return 1.0 - h.equalitySelectivity(v), nil
	case primitives.GreaterThan:
		if v < h.min {
			return 1.0, nil
		}
		if v >= h.max {
			return 0.0, nil
		}
		return h.aboveSelectivity(v, 0), nil
	case primitives.GreaterThanOrEqual:
		if v < h.min {
			return 1.0, nil
		}
		if v > h.max {
			return 0.0, nil
		}
		return h.aboveSelectivity(v, 1), nil
	case primitives.LessThan:
		if v <= h.min {
			return 0.0, nil
		}
		if v > h.max {
			return 1.0, nil
		}
		return h.belowSelectivity(v, 0), nil
	case primitives.LessThanOrEqual:
		if v < h.min {
			return 0.0, nil
		}
		if v >= h.max {
			return 1.0, nil
		}
		return h.belowSelectivity(v, 1), nil
	default:
		return 0, errs.Db("unsupported selectivity estimation for predicate %s", op)
	}
}

func (h *IntHistogram) equalitySelectivity(v int32) float64 {
	if v < h.min || v > h.max {
		return 0.0
	}
	b := h.bucketIndex(v)
	return float64(h.counts[b]) / float64(h.bucketSize) / float64(h.ntups)
}

// aboveSelectivity estimates the fraction of values greater than v
// (inclusive=1 counts v itself): the partial tail of v's bucket plus
// every bucket after it.
func (h *IntHistogram) aboveSelectivity(v int32, inclusive int32) float64 {
	b := h.bucketIndex(v)
	fraction := float64(h.bucketMax(b)-v+inclusive) / float64(h.bucketSize)
	estimate := float64(h.counts[b]) * fraction
	for i := b + 1; i < len(h.counts); i++ {
		estimate += float64(h.counts[i])
	}
	return estimate / float64(h.ntups)
}

// belowSelectivity mirrors aboveSelectivity for the less-than family.
func (h *IntHistogram) belowSelectivity(v int32, inclusive int32) float64 {
	b := h.bucketIndex(v)
	fraction := float64(v-h.bucketMin(b)+inclusive) / float64(h.bucketSize)
	estimate := float64(h.counts[b]) * fraction
	for i := 0; i < b; i++ {
		estimate += float64(h.counts[i])
	}
	return estimate / float64(h.ntups)
}

func (h *IntHistogram) String() string {
	return fmt.Sprintf("min=%d max=%d bucket_size=%d buckets=%d ntups=%d",
		h.min, h.max, h.bucketSize, len(h.counts), h.ntups)
}
