package execution

import (
	"minnow/pkg/errs"
	"minnow/pkg/tuple"
	"minnow/pkg/types"
)

// Project reshapes child tuples to an ordered list of source field
// indices. The expected output types are validated against the child
// schema at construction, so a mismatched plan fails before execution.
type Project struct {
	base      *BaseIterator
	child     DbIterator
	outFields []int
	td        *tuple.TupleDescription
}

func NewProject(outFields []int, outTypes []types.Type, child DbIterator) (*Project, error) {
	if child == nil {
		return nil, errNilArg("child operator")
	}
	if len(outFields) != len(outTypes) {
		return nil, errs.Db("projection has %d fields but %d types", len(outFields), len(outTypes))
	}
	if len(outFields) == 0 {
		return nil, errs.Db("projection must keep at least one field")
	}

	childTd := child.GetTupleDesc()
	names := make([]string, len(outFields))
	for i, idx := range outFields {
		ft, err := childTd.TypeAtIndex(idx)
		if err != nil {
			return nil, err
		}
		if ft != outTypes[i] {
			return nil, errs.Db("projection type mismatch at field %d: child has %v, plan expects %v",
				idx, ft, outTypes[i])
		}
		name, err := childTd.FieldName(idx)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}

	td, err := tuple.NewTupleDesc(outTypes, names)
	if err != nil {
		return nil, err
	}

	p := &Project{child: child, outFields: append([]int(nil), outFields...), td: td}
	p.base = NewBaseIterator(p.readNext)
	return p, nil
}

func (p *Project) readNext() (*tuple.Tuple, error) {
	ok, err := p.child.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	t, err := p.child.Next()
	if err != nil {
		return nil, err
	}

	out := tuple.NewTuple(p.td)
	for i, idx := range p.outFields {
		f, err := t.GetField(idx)
		if err != nil {
			return nil, err
		}
		if err := out.SetField(i, f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Project) Open() error {
	if err := p.child.Open(); err != nil {
		return err
	}
	p.base.MarkOpened()
	return nil
}

func (p *Project) HasNext() (bool, error) {
	return p.base.HasNext()
}

func (p *Project) Next() (*tuple.Tuple, error) {
	return p.base.Next()
}

func (p *Project) Rewind() error {
	if err := p.child.Rewind(); err != nil {
		return err
	}
	p.base.ClearCache()
	return nil
}

func (p *Project) Close() error {
	cerr := closeChild(p.child)
	if err := p.base.Close(); err != nil {
		return err
	}
	return cerr
}

func (p *Project) GetTupleDesc() *tuple.TupleDescription {
	return p.td
}
