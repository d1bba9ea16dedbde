package page

import (
	"minnow/pkg/concurrency/transaction"
	"minnow/pkg/tuple"
)

// Page is the unit of caching in the page store. Implementations track
// which transaction dirtied them so the store knows what to flush.
type Page interface {
	GetID() tuple.PageID

	// IsDirty returns the transaction that last modified this page,
	// or nil when the page is clean.
	IsDirty() *transaction.TransactionID

	MarkDirty(dirty bool, tid *transaction.TransactionID)

	// GetPageData serializes the page into its on-disk form.
	GetPageData() []byte
}
