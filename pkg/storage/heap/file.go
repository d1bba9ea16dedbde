package heap

import (
	"path/filepath"

	"minnow/pkg/errs"
	"minnow/pkg/primitives"
	"minnow/pkg/storage/disk"
	"minnow/pkg/tuple"
)

// HeapFile stores one table as a sequence of fixed-size pages. Its id
// is derived from the absolute path of the backing file, so the same
// table always resolves to the same id.
type HeapFile struct {
	id primitives.TableID
	td *tuple.TupleDescription
	dm disk.Manager
}

// NewHeapFile opens (or creates) the table file at path.
func NewHeapFile(path string, td *tuple.TupleDescription) (*HeapFile, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.WrapDb(err, "cannot resolve table path %s", path)
	}

	dm, err := disk.NewFileManager(abs)
	if err != nil {
		return nil, err
	}

	return &HeapFile{
		id: primitives.Filepath(abs).Hash(),
		td: td,
		dm: dm,
	}, nil
}

// NewHeapFileWithManager builds a heap file over an arbitrary disk
// manager. Tests use it with the in-memory manager; the id then comes
// from the given name instead of a filesystem path.
func NewHeapFileWithManager(name string, dm disk.Manager, td *tuple.TupleDescription) *HeapFile {
	return &HeapFile{
		id: primitives.Filepath(name).Hash(),
		td: td,
		dm: dm,
	}
}

func (hf *HeapFile) GetID() primitives.TableID {
	return hf.id
}

func (hf *HeapFile) GetTupleDesc() *tuple.TupleDescription {
	return hf.td
}

func (hf *HeapFile) NumPages() (int, error) {
	return hf.dm.NumPages()
}

// ReadPage loads and deserializes the page at pid.
func (hf *HeapFile) ReadPage(pid *HeapPageID) (*HeapPage, error) {
	if pid.GetTableID() != hf.id {
		return nil, errs.Db("%s does not belong to table %d", pid, hf.id)
	}

	buf := make([]byte, disk.PageSize)
	if err := hf.dm.ReadPage(pid.PageNo(), buf); err != nil {
		return nil, err
	}
	return NewHeapPage(pid, buf, hf.td)
}

// WritePage serializes p back to the backing store.
func (hf *HeapFile) WritePage(p *HeapPage) error {
	return hf.dm.WritePage(p.pid.PageNo(), p.GetPageData())
}

// AppendEmptyPage grows the file by one empty page and returns it.
func (hf *HeapFile) AppendEmptyPage() (*HeapPage, error) {
	n, err := hf.dm.NumPages()
	if err != nil {
		return nil, err
	}

	pid := NewHeapPageID(hf.id, n)
	hp, err := NewEmptyHeapPage(pid, hf.td)
	if err != nil {
		return nil, err
	}
	if err := hf.dm.WritePage(n, hp.GetPageData()); err != nil {
		return nil, err
	}
	return hp, nil
}

func (hf *HeapFile) Close() error {
	return hf.dm.Close()
}
