package transaction

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

var transactionCounter int64

// TransactionID identifies a transaction. The monotonic sequence
// orders transactions within a process; the uuid token correlates log
// lines across restarts.
type TransactionID struct {
	id    int64
	token uuid.UUID
}

func NewTransactionID() *TransactionID {
	return &TransactionID{
		id:    atomic.AddInt64(&transactionCounter, 1),
		token: uuid.New(),
	}
}

func (tid *TransactionID) ID() int64 {
	return tid.id
}

func (tid *TransactionID) Token() uuid.UUID {
	return tid.token
}

func (tid *TransactionID) String() string {
	return fmt.Sprintf("tid-%d (%s)", tid.id, tid.token.String()[:8])
}

func (tid *TransactionID) Equals(other *TransactionID) bool {
	if tid == nil || other == nil {
		return tid == other
	}
	return tid.id == other.id
}
