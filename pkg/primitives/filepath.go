package primitives

import "hash/fnv"

// Filepath is the absolute path of a file backing a table.
type Filepath string

// Hash derives the TableID for this path. FNV-1a keeps the id stable
// across runs for the same absolute path.
func (f Filepath) Hash() TableID {
	h := fnv.New64a()
	h.Write([]byte(f))
	return TableID(h.Sum64())
}
