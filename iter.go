package lash

import "github.com/lashvm/lash/lashvm"

// ForEach visits every key/value pair of the referenced table exactly
// once, in runtime-defined order, without assuming a count in advance.
// The visitor's error stops traversal and propagates. Mutating the
// table's key set during traversal is undefined behavior, not detected.
func (st *State) ForEach(t *Ref, visit func(key, val any) error) error {
	table, err := refTable(t)
	if err != nil {
		return err
	}
	var k, v any
	var ok bool
	for k, v, ok = table.Next(nil); ok; k, v, ok = table.Next(k) {
		if err := visit(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Iterator is a forward cursor over a table's enumeration order. It holds
// only the persistent table reference and the last-returned key: each
// advance re-enters the runtime's enumeration primitive.
type Iterator struct {
	t    *Ref
	last any
	key  any
	val  any
	done bool
}

// Iter starts a fresh enumeration cursor.
func (st *State) Iter(t *Ref) (*Iterator, error) {
	if _, err := refTable(t); err != nil {
		return nil, err
	}
	return &Iterator{t: t}, nil
}

// Next advances to the following pair, reporting false at exhaustion.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	table, err := refTable(it.t)
	if err != nil {
		it.done = true
		return false
	}
	k, v, ok := table.Next(it.last)
	if !ok {
		it.done = true
		it.key, it.val = nil, nil
		return false
	}
	it.last = k
	it.key, it.val = k, v
	return true
}

// Pair returns the pair Next materialized.
func (it *Iterator) Pair() (key, val any) {
	return it.key, it.val
}

// Done reports exhaustion. Two iterators compare as "equal ends" when
// both are done, regardless of what they visited.
func (it *Iterator) Done() bool {
	return it.done
}

func refTable(t *Ref) (*lashvm.Table, error) {
	v, err := t.value()
	if err != nil {
		return nil, err
	}
	table, ok := v.(*lashvm.Table)
	if !ok {
		return nil, typeMismatch("reference is a %s, not a table", lashvm.TypeOf(v))
	}
	return table, nil
}
