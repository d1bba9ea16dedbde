package join

import "minnow/pkg/tuple"

// matchBuffer holds the merged tuples produced when one probe tuple
// matches several build tuples. The merged results are built eagerly
// so nothing here aliases the hash table while it is being probed.
type matchBuffer struct {
	pending []*tuple.Tuple
	cursor  int
}

func (b *matchBuffer) fill(outers []*tuple.Tuple, inner *tuple.Tuple) error {
	b.pending = b.pending[:0]
	b.cursor = 0
	for _, o := range outers {
		merged, err := tuple.CombineTuples(o, inner)
		if err != nil {
			return err
		}
		b.pending = append(b.pending, merged)
	}
	return nil
}

func (b *matchBuffer) next() *tuple.Tuple {
	if b.cursor >= len(b.pending) {
		return nil
	}
	t := b.pending[b.cursor]
	b.cursor++
	return t
}

func (b *matchBuffer) clear() {
	b.pending = nil
	b.cursor = 0
}
