package lashvm

// Table is the runtime's associative container. Keys and values are
// canonical VM values; setting a key to nil deletes it. Enumeration order
// is a property of the table's mutation history and is deliberately
// unspecified.
type Table struct {
	hash map[any]any
	keys []any       // key log, stale entries skipped via kpos
	kpos map[any]int // live position of each key in keys
}

func NewTable() *Table {
	return &Table{
		hash: make(map[any]any),
		kpos: make(map[any]int),
	}
}

func (t *Table) Get(key any) any {
	return t.hash[key]
}

// GetOr returns the value at key, or def when the key is absent or nil.
func (t *Table) GetOr(key, def any) any {
	if v, ok := t.hash[key]; ok {
		return v
	}
	return def
}

func (t *Table) Set(key, val any) {
	if key == nil {
		return
	}
	if val == nil {
		if _, ok := t.hash[key]; ok {
			delete(t.hash, key)
			delete(t.kpos, key)
		}
		return
	}
	if _, ok := t.hash[key]; !ok {
		t.kpos[key] = len(t.keys)
		t.keys = append(t.keys, key)
	}
	t.hash[key] = val
}

func (t *Table) Len() int {
	return len(t.hash)
}

// Next is the one-shot enumeration primitive. A nil last starts a fresh
// enumeration; otherwise it resumes after last. Mutating the key set
// between calls invalidates the cursor; the result is undefined, not
// detected.
func (t *Table) Next(last any) (key, val any, ok bool) {
	start := 0
	if last != nil {
		pos, live := t.kpos[last]
		if !live {
			return nil, nil, false
		}
		start = pos + 1
	}
	for i := start; i < len(t.keys); i++ {
		k := t.keys[i]
		if pos, live := t.kpos[k]; live && pos == i {
			return k, t.hash[k], true
		}
	}
	return nil, nil, false
}
