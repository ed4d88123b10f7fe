package lashvm

import "testing"

func TestTableSetGet(t *testing.T) {
	tab := NewTable()
	tab.Set("a", int64(1))
	tab.Set(int64(2), "two")

	if v := tab.Get("a"); v != int64(1) {
		t.Fatalf("got %v", v)
	}
	if v := tab.Get(int64(2)); v != "two" {
		t.Fatalf("got %v", v)
	}
	if v := tab.Get("missing"); v != nil {
		t.Fatalf("got %v", v)
	}
	if tab.Len() != 2 {
		t.Fatalf("got %d", tab.Len())
	}

	// setting nil deletes
	tab.Set("a", nil)
	if v := tab.Get("a"); v != nil {
		t.Fatalf("got %v", v)
	}
	if tab.Len() != 1 {
		t.Fatalf("got %d", tab.Len())
	}

	// nil key is ignored
	tab.Set(nil, "x")
	if tab.Len() != 1 {
		t.Fatalf("got %d", tab.Len())
	}
}

func TestTableGetOr(t *testing.T) {
	tab := NewTable()
	tab.Set("a", int64(1))
	if v := tab.GetOr("a", int64(9)); v != int64(1) {
		t.Fatalf("got %v", v)
	}
	if v := tab.GetOr("b", int64(9)); v != int64(9) {
		t.Fatalf("got %v", v)
	}
}

func TestTableNext(t *testing.T) {
	tab := NewTable()
	tab.Set("a", int64(1))
	tab.Set("b", int64(2))
	tab.Set("c", int64(3))

	seen := make(map[any]any)
	var k, v any
	var ok bool
	for k, v, ok = tab.Next(nil); ok; k, v, ok = tab.Next(k) {
		if _, dup := seen[k]; dup {
			t.Fatalf("key %v visited twice", k)
		}
		seen[k] = v
	}
	if len(seen) != 3 {
		t.Fatalf("got %d keys", len(seen))
	}
	if seen["b"] != int64(2) {
		t.Fatalf("got %v", seen["b"])
	}
}

func TestTableNextEmpty(t *testing.T) {
	tab := NewTable()
	if _, _, ok := tab.Next(nil); ok {
		t.Fatal("empty table should not enumerate")
	}
}

func TestTableNextAfterDelete(t *testing.T) {
	tab := NewTable()
	tab.Set("a", int64(1))
	tab.Set("b", int64(2))
	tab.Set("c", int64(3))

	// deleting a key not under the cursor keeps the rest enumerable
	k, _, ok := tab.Next(nil)
	if !ok {
		t.Fatal()
	}
	var other any
	for key := range tab.hash {
		if key != k {
			other = key
			break
		}
	}
	tab.Set(other, nil)

	count := 1
	for k, _, ok = tab.Next(k); ok; k, _, ok = tab.Next(k) {
		count++
	}
	if count != 2 {
		t.Fatalf("got %d", count)
	}

	// a deleted cursor key ends the enumeration
	if _, _, ok := tab.Next(other); ok {
		t.Fatal("stale cursor should stop")
	}
}

func TestTableReinsert(t *testing.T) {
	tab := NewTable()
	tab.Set("a", int64(1))
	tab.Set("a", nil)
	tab.Set("a", int64(2))
	if v := tab.Get("a"); v != int64(2) {
		t.Fatalf("got %v", v)
	}

	count := 0
	var k, v any
	var ok bool
	for k, v, ok = tab.Next(nil); ok; k, v, ok = tab.Next(k) {
		count++
		_ = v
	}
	if count != 1 {
		t.Fatalf("got %d", count)
	}
}
