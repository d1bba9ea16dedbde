package heap

import (
	"fmt"

	"minnow/pkg/primitives"
	"minnow/pkg/tuple"
)

// HeapPageID identifies a page within a heap file.
type HeapPageID struct {
	tableID primitives.TableID
	pageNo  int
}

func NewHeapPageID(tableID primitives.TableID, pageNo int) *HeapPageID {
	return &HeapPageID{tableID: tableID, pageNo: pageNo}
}

func (pid *HeapPageID) GetTableID() primitives.TableID {
	return pid.tableID
}

func (pid *HeapPageID) PageNo() int {
	return pid.pageNo
}

func (pid *HeapPageID) Equals(other tuple.PageID) bool {
	o, ok := other.(*HeapPageID)
	if !ok {
		return false
	}
	return pid.tableID == o.tableID && pid.pageNo == o.pageNo
}

func (pid *HeapPageID) Key() tuple.PageKey {
	return tuple.PageKey{Table: pid.tableID, Page: pid.pageNo}
}

func (pid *HeapPageID) String() string {
	return fmt.Sprintf("page %d of table %d", pid.pageNo, pid.tableID)
}
