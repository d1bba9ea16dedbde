package disk

import (
	"github.com/dsnet/golib/memfile"

	"minnow/pkg/errs"
)

// MemManager is a Manager over an in-memory file. Tests and statistics
// fixtures use it so no scratch files touch the filesystem.
type MemManager struct {
	f *memfile.File
}

func NewMemManager() *MemManager {
	return &MemManager{f: memfile.New(make([]byte, 0))}
}

func (m *MemManager) ReadPage(pageNo int, buf []byte) error {
	if len(buf) != PageSize {
		return errs.Db("page buffer has %d bytes, want %d", len(buf), PageSize)
	}
	if _, err := m.f.ReadAt(buf, int64(pageNo)*PageSize); err != nil {
		return errs.WrapDb(err, "failed to read page %d", pageNo)
	}
	return nil
}

func (m *MemManager) WritePage(pageNo int, data []byte) error {
	if len(data) != PageSize {
		return errs.Db("page data has %d bytes, want %d", len(data), PageSize)
	}
	if _, err := m.f.WriteAt(data, int64(pageNo)*PageSize); err != nil {
		return errs.WrapDb(err, "failed to write page %d", pageNo)
	}
	return nil
}

func (m *MemManager) NumPages() (int, error) {
	return len(m.f.Bytes()) / PageSize, nil
}

func (m *MemManager) Close() error {
	return nil
}
