package lash

import (
	"testing"

	"github.com/lashvm/lash/lashvm"
)

func TestRefLifecycle(t *testing.T) {
	st := NewState()
	defer st.Close()

	r, err := st.RefOf("pinned")
	if err != nil {
		t.Fatal(err)
	}
	v, err := r.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != "pinned" {
		t.Fatalf("got %v", v)
	}

	r.Release()
	if _, err := r.Value(); KindOf(err) != KindTypeMismatch {
		t.Fatalf("got %v", err)
	}
	// releasing again is a no-op
	r.Release()
}

func TestRefOutlivesStack(t *testing.T) {
	st := NewState()
	defer st.Close()

	tab, err := st.NewTable("k", 1)
	if err != nil {
		t.Fatal(err)
	}
	st.Push(tab)
	r := st.RefAt(-1)
	st.VM().Drop(1)

	v, err := r.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v.(*lashvm.Table).Get("k") != int64(1) {
		t.Fatal("referenced table lost")
	}
	r.Release()
}

func TestGlobalRef(t *testing.T) {
	st := NewState()
	defer st.Close()

	if err := st.Set("g", "value"); err != nil {
		t.Fatal(err)
	}
	r := st.GlobalRef("g")
	defer r.Release()

	// the ref pins the value, not the name
	if err := st.Set("g", "changed"); err != nil {
		t.Fatal(err)
	}
	v, err := r.Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != "value" {
		t.Fatalf("got %v", v)
	}
}

func TestRefKeepsObjectAlive(t *testing.T) {
	st := NewState()
	defer st.Close()

	drops := 0
	res := resource{drops: &drops}
	r, err := st.RefOf(ByValue(res))
	if err != nil {
		t.Fatal(err)
	}

	st.VM().Collect()
	if drops != 0 {
		t.Fatalf("got %d", drops)
	}

	r.Release()
	st.VM().Collect()
	if drops != 1 {
		t.Fatalf("got %d", drops)
	}
}

func TestPushRef(t *testing.T) {
	st := NewState()
	defer st.Close()

	r, err := st.RefOf(7)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Release()

	if err := st.Set("n", r); err != nil {
		t.Fatal(err)
	}
	n, err := Get[int](st, "n")
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Fatalf("got %d", n)
	}
}
