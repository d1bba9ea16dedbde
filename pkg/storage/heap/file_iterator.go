package heap

import (
	"minnow/pkg/concurrency/transaction"
	"minnow/pkg/errs"
	"minnow/pkg/storage/page"
	"minnow/pkg/tuple"
)

// PageFetcher pins pages on behalf of a transaction. The page store
// implements it; the iterator depends on this narrow surface so the
// storage layer never imports the cache.
type PageFetcher interface {
	GetPage(tid *transaction.TransactionID, pid tuple.PageID, perm Permissions) (page.Page, error)
}

// Permissions is the access mode a page is pinned with.
type Permissions int

const (
	ReadOnly Permissions = iota
	ReadWrite
)

// FileIterator walks every occupied slot of a heap file: pages in
// ascending page order, slots in ascending slot order within a page.
// Every page is pinned read-only through the fetcher. The page count
// is snapshotted at Open, so pages appended afterwards stay invisible
// to this scan.
type FileIterator struct {
	tid      *transaction.TransactionID
	file     *HeapFile
	fetcher  PageFetcher
	numPages int
	pageNo   int
	tuples   []*tuple.Tuple
	cursor   int
	opened   bool
}

func NewFileIterator(tid *transaction.TransactionID, file *HeapFile, fetcher PageFetcher) *FileIterator {
	return &FileIterator{tid: tid, file: file, fetcher: fetcher}
}

func (it *FileIterator) Open() error {
	n, err := it.file.NumPages()
	if err != nil {
		return err
	}
	it.numPages = n
	it.pageNo = -1
	it.tuples = nil
	it.cursor = 0
	it.opened = true
	return nil
}

func (it *FileIterator) HasNext() (bool, error) {
	if !it.opened {
		return false, errs.Db("file iterator not opened")
	}

	for it.cursor >= len(it.tuples) {
		if it.pageNo+1 >= it.numPages {
			return false, nil
		}
		if err := it.loadPage(it.pageNo + 1); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (it *FileIterator) loadPage(pageNo int) error {
	pid := NewHeapPageID(it.file.GetID(), pageNo)
	p, err := it.fetcher.GetPage(it.tid, pid, ReadOnly)
	if err != nil {
		return err
	}

	hp, ok := p.(*HeapPage)
	if !ok {
		return errs.Db("%s is not a heap page", pid)
	}

	it.pageNo = pageNo
	it.tuples = hp.Tuples()
	it.cursor = 0
	return nil
}

func (it *FileIterator) Next() (*tuple.Tuple, error) {
	ok, err := it.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.WrapDb(errs.ErrNoSuchElement, "heap file exhausted")
	}

	t := it.tuples[it.cursor]
	it.cursor++
	return t, nil
}

// Rewind restarts the scan at page 0 without refreshing the page-count
// snapshot.
func (it *FileIterator) Rewind() error {
	if !it.opened {
		return errs.Db("file iterator not opened")
	}
	it.pageNo = -1
	it.tuples = nil
	it.cursor = 0
	return nil
}

func (it *FileIterator) Close() error {
	it.opened = false
	it.tuples = nil
	return nil
}
