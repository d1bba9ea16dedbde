package statistics

import (
	"github.com/spaolacci/murmur3"

	"minnow/pkg/primitives"
)

// hashRange bounds the integer domain string values are hashed into.
const hashRange = 1 << 16

// StringHistogram estimates selectivity over a string column by
// hashing each value into a bounded integer domain and reusing the
// integer histogram. Equality estimates are sound; range estimates are
// over hash order, which is all the optimizer asks of them.
type StringHistogram struct {
	h *IntHistogram
}

func NewStringHistogram(buckets int) (*StringHistogram, error) {
	h, err := NewIntHistogram(buckets, 0, hashRange-1)
	if err != nil {
		return nil, err
	}
	return &StringHistogram{h: h}, nil
}

func hashString(s string) int32 {
	return int32(murmur3.Sum32([]byte(s)) % hashRange)
}

func (sh *StringHistogram) AddValue(s string) error {
	return sh.h.AddValue(hashString(s))
}

func (sh *StringHistogram) EstimateSelectivity(op primitives.Predicate, s string) (float64, error) {
	return sh.h.EstimateSelectivity(op, hashString(s))
}
