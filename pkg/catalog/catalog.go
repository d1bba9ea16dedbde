package catalog

import (
	"github.com/sasha-s/go-deadlock"

	"minnow/pkg/errs"
	"minnow/pkg/primitives"
	"minnow/pkg/storage/heap"
	"minnow/pkg/tuple"
)

type tableInfo struct {
	file *heap.HeapFile
	name string
	pkey string
}

// Catalog tracks the tables of the database: each one a heap file, a
// name, and an optional primary-key field. The optimizer's join
// cardinality estimates consult the primary key.
type Catalog struct {
	mu     deadlock.RWMutex
	tables map[primitives.TableID]*tableInfo
	names  map[string]primitives.TableID
}

func NewCatalog() *Catalog {
	return &Catalog{
		tables: make(map[primitives.TableID]*tableInfo),
		names:  make(map[string]primitives.TableID),
	}
}

// AddTable registers a heap file under a name. Re-adding a name
// replaces the previous binding, matching the newest-wins behavior of
// reloading a table.
func (c *Catalog) AddTable(file *heap.HeapFile, name, pkeyField string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.names[name]; ok {
		delete(c.tables, old)
	}
	c.tables[file.GetID()] = &tableInfo{file: file, name: name, pkey: pkeyField}
	c.names[name] = file.GetID()
}

func (c *Catalog) GetDbFile(tableID primitives.TableID) (*heap.HeapFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.tables[tableID]
	if !ok {
		return nil, errs.Db("no table with id %d", tableID)
	}
	return info.file, nil
}

func (c *Catalog) GetTupleDesc(tableID primitives.TableID) (*tuple.TupleDescription, error) {
	file, err := c.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}
	return file.GetTupleDesc(), nil
}

func (c *Catalog) GetTableName(tableID primitives.TableID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.tables[tableID]
	if !ok {
		return "", errs.Db("no table with id %d", tableID)
	}
	return info.name, nil
}

func (c *Catalog) GetPrimaryKey(tableID primitives.TableID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.tables[tableID]
	if !ok {
		return "", errs.Db("no table with id %d", tableID)
	}
	return info.pkey, nil
}

func (c *Catalog) GetTableID(name string) (primitives.TableID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.names[name]
	if !ok {
		return 0, errs.Db("no table named %q", name)
	}
	return id, nil
}

// TableIDs returns the ids of every registered table.
func (c *Catalog) TableIDs() []primitives.TableID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]primitives.TableID, 0, len(c.tables))
	for id := range c.tables {
		ids = append(ids, id)
	}
	return ids
}
