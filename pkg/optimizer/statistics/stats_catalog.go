package statistics

import (
	"minnow/pkg/catalog"
	"minnow/pkg/errs"
	"minnow/pkg/logging"
	"minnow/pkg/memory"
)

// StatsCatalog maps base table names to their statistics. It is built
// once after the catalog is loaded and read-only during query
// execution; the optimizer and physical planner receive it explicitly
// rather than through process-wide state.
type StatsCatalog struct {
	stats map[string]*TableStats
}

func NewStatsCatalog() *StatsCatalog {
	return &StatsCatalog{stats: make(map[string]*TableStats)}
}

func (sc *StatsCatalog) Get(tableName string) (*TableStats, error) {
	ts, ok := sc.stats[tableName]
	if !ok {
		return nil, errs.Db("no statistics for table %q", tableName)
	}
	return ts, nil
}

func (sc *StatsCatalog) Set(tableName string, ts *TableStats) {
	sc.stats[tableName] = ts
}

// ComputeStatistics scans every catalog table and builds its stats.
func ComputeStatistics(cat *catalog.Catalog, pool *memory.PageStore) (*StatsCatalog, error) {
	log := logging.GetLogger()
	log.Info("computing table statistics")

	sc := NewStatsCatalog()
	for _, tableID := range cat.TableIDs() {
		name, err := cat.GetTableName(tableID)
		if err != nil {
			return nil, err
		}

		ts, err := NewTableStats(tableID, IOCostPerPage, cat, pool)
		if err != nil {
			return nil, errs.WrapDb(err, "failed to compute statistics for %q", name)
		}
		sc.Set(name, ts)
		log.Debug("table statistics ready",
			"table", name,
			"tuples", ts.TotalTuples(),
			"scan_cost", ts.EstimateScanCost())
	}

	log.Info("table statistics complete", "tables", len(sc.stats))
	return sc, nil
}
