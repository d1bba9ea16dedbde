package statistics

import (
	"math"

	"minnow/pkg/catalog"
	"minnow/pkg/concurrency/transaction"
	"minnow/pkg/errs"
	"minnow/pkg/execution"
	"minnow/pkg/memory"
	"minnow/pkg/primitives"
	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

const (
	// NumHistBins is how many buckets each column histogram carries.
	NumHistBins = 100

	// IOCostPerPage is the default cost charged per page read.
	IOCostPerPage = 1000
)

// TableStats holds per-column histograms and scan costs for one base
// table. Stats are built by two full scans: the first finds min/max of
// every integer column, the second populates the histograms.
type TableStats struct {
	tableID       primitives.TableID
	ioCostPerPage int
	totalTuples   int
	td            *tuple.TupleDescription
	numPages      int
	intHists      map[int]*IntHistogram
	strHists      map[int]*StringHistogram
}

// NewTableStats scans the table and builds its statistics.
func NewTableStats(tableID primitives.TableID, ioCostPerPage int, cat *catalog.Catalog, pool *memory.PageStore) (*TableStats, error) {
	td, err := cat.GetTupleDesc(tableID)
	if err != nil {
		return nil, err
	}
	file, err := cat.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}
	numPages, err := file.NumPages()
	if err != nil {
		return nil, err
	}

	ts := &TableStats{
		tableID:       tableID,
		ioCostPerPage: ioCostPerPage,
		td:            td,
		numPages:      numPages,
		intHists:      make(map[int]*IntHistogram),
		strHists:      make(map[int]*StringHistogram),
	}

	for i, ft := range td.Types {
		if ft == types.StringType {
			sh, err := NewStringHistogram(NumHistBins)
			if err != nil {
				return nil, err
			}
			ts.strHists[i] = sh
		}
	}

	tid := transaction.NewTransactionID()
	name, err := cat.GetTableName(tableID)
	if err != nil {
		return nil, err
	}

	if err := ts.scanMinMax(tid, name, cat, pool); err != nil {
		return nil, err
	}
	if err := ts.scanHistograms(tid, name, cat, pool); err != nil {
		return nil, err
	}
	return ts, nil
}

// scanMinMax is the first pass: find min and max of every integer
// column so the fixed-width histograms can be sized.
func (ts *TableStats) scanMinMax(tid *transaction.TransactionID, alias string, cat *catalog.Catalog, pool *memory.PageStore) error {
	mins := make(map[int]int32)
	maxs := make(map[int]int32)
	for i, ft := range ts.td.Types {
		if ft == types.IntType {
			mins[i] = math.MaxInt32
			maxs[i] = math.MinInt32
		}
	}
	if len(mins) == 0 {
		return nil
	}

	scan, err := execution.NewSeqScan(tid, ts.tableID, alias, cat, pool)
	if err != nil {
		return err
	}
	if err := scan.Open(); err != nil {
		return err
	}
	defer scan.Close()

	sawRows := false
	for {
		ok, err := scan.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		t, err := scan.Next()
		if err != nil {
			return err
		}
		sawRows = true

		for i := range mins {
			f, err := t.GetField(i)
			if err != nil {
				return err
			}
			v := f.(*types.IntField).Value
			if v < mins[i] {
				mins[i] = v
			}
			if v > maxs[i] {
				maxs[i] = v
			}
		}
	}

	for i := range mins {
		lo, hi := mins[i], maxs[i]
		if !sawRows {
			lo, hi = 0, 0
		}
		h, err := NewIntHistogram(NumHistBins, lo, hi)
		if err != nil {
			return err
		}
		ts.intHists[i] = h
	}
	return nil
}

// scanHistograms is the second pass: fold every value into its
// column's histogram and count the tuples.
func (ts *TableStats) scanHistograms(tid *transaction.TransactionID, alias string, cat *catalog.Catalog, pool *memory.PageStore) error {
	scan, err := execution.NewSeqScan(tid, ts.tableID, alias, cat, pool)
	if err != nil {
		return err
	}
	if err := scan.Open(); err != nil {
		return err
	}
	defer scan.Close()

	for {
		ok, err := scan.HasNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		t, err := scan.Next()
		if err != nil {
			return err
		}
		ts.totalTuples++

		for i := range ts.td.Types {
			f, err := t.GetField(i)
			if err != nil {
				return err
			}
			switch v := f.(type) {
			case *types.IntField:
				if err := ts.intHists[i].AddValue(v.Value); err != nil {
					return err
				}
			case *types.StringField:
				if err := ts.strHists[i].AddValue(v.Value); err != nil {
					return err
				}
			}
		}
	}
}

// EstimateScanCost is the cost of reading the whole table: every page
// at the per-page IO cost, whether or not its last slots are used.
func (ts *TableStats) EstimateScanCost() float64 {
	return float64(ts.numPages) * float64(ts.ioCostPerPage)
}

// EstimateTableCardinality applies a selectivity factor to the table's
// total tuple count.
func (ts *TableStats) EstimateTableCardinality(selectivity float64) int {
	return int(float64(ts.totalTuples) * selectivity)
}

// EstimateSelectivity estimates the fraction of tuples satisfying
// `field op constant`.
func (ts *TableStats) EstimateSelectivity(field int, op primitives.Predicate, constant types.Field) (float64, error) {
	switch v := constant.(type) {
	case *types.IntField:
		h, ok := ts.intHists[field]
		if !ok {
			return 0, errs.Db("field %d has no integer histogram", field)
		}
		return h.EstimateSelectivity(op, v.Value)
	case *types.StringField:
		h, ok := ts.strHists[field]
		if !ok {
			return 0, errs.Db("field %d has no string histogram", field)
		}
		return h.EstimateSelectivity(op, v.Value)
	default:
		return 0, errs.Db("cannot estimate selectivity against %v", constant.Type())
	}
}

func (ts *TableStats) TotalTuples() int {
	return ts.totalTuples
}
