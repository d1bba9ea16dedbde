package primitives

// TableID uniquely identifies a table. It is derived from hashing the
// absolute path of the file backing the table, so the same file always
// maps to the same id.
type TableID uint64

// PageNumber is the position of a page within a table file.
type PageNumber int

// SlotID is the position of a tuple slot within a page.
type SlotID int

// ColumnID identifies a column within a schema.
type ColumnID int
