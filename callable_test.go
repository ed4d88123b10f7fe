package lash

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestBindFunc(t *testing.T) {
	st := NewState()
	defer st.Close()

	if err := st.BindFunc("add", func(a, b int) int {
		return a + b
	}); err != nil {
		t.Fatal(err)
	}

	vals, err := st.Call("add", 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 1 || vals[0] != int64(5) {
		t.Fatalf("got %v", vals)
	}
	if st.VM().Top() != 0 {
		t.Fatalf("stack not balanced: %d", st.VM().Top())
	}
}

func TestMultipleResults(t *testing.T) {
	st := NewState()
	defer st.Close()

	if err := st.BindFunc("divmod", func(a, b int) (int, int) {
		return a / b, a % b
	}); err != nil {
		t.Fatal(err)
	}
	vals, err := st.Call("divmod", 7, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 2 || vals[0] != int64(3) || vals[1] != int64(1) {
		t.Fatalf("got %v", vals)
	}
}

func TestVariadic(t *testing.T) {
	st := NewState()
	defer st.Close()

	if err := st.BindFunc("sum", func(base int, rest ...int) int {
		for _, n := range rest {
			base += n
		}
		return base
	}); err != nil {
		t.Fatal(err)
	}

	vals, err := st.Call("sum", 1, 2, 3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != int64(10) {
		t.Fatalf("got %v", vals)
	}

	vals, err = st.Call("sum", 1)
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != int64(1) {
		t.Fatalf("got %v", vals)
	}

	_, err = st.Call("sum")
	if KindOf(err) != KindArityMismatch {
		t.Fatalf("got %v", err)
	}
}

func TestErrorResultRaises(t *testing.T) {
	st := NewState()
	defer st.Close()

	if err := st.BindFunc("fail", func() (int, error) {
		return 0, errors.New("nope")
	}); err != nil {
		t.Fatal(err)
	}
	_, err := st.Call("fail")
	if KindOf(err) != KindRuntimeScript {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Fatalf("got %v", err)
	}

	// a nil error result is stripped, not pushed
	if err := st.BindFunc("ok", func() (int, error) {
		return 7, nil
	}); err != nil {
		t.Fatal(err)
	}
	vals, err := st.Call("ok")
	if err != nil {
		t.Fatal(err)
	}
	if len(vals) != 1 || vals[0] != int64(7) {
		t.Fatalf("got %v", vals)
	}
}

func TestPanicBecomesNativeException(t *testing.T) {
	st := NewState()
	defer st.Close()

	if err := st.BindFunc("boom", func() {
		panic("kaboom")
	}); err != nil {
		t.Fatal(err)
	}
	_, err := st.Call("boom")
	if KindOf(err) != KindNativeException {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("got %v", err)
	}
	if st.VM().Top() != 0 {
		t.Fatalf("got %d", st.VM().Top())
	}
}

func TestOverloadDispatch(t *testing.T) {
	st := NewState()
	defer st.Close()

	ov, err := Overload(
		func(a int) string { return "int" },
		func(s string) string { return "string" },
		func(a, b int) string { return "int,int" },
		func(a, b, c int) string { return "int,int,int" },
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.BindFunc("f", ov); err != nil {
		t.Fatal(err)
	}

	call := func(args ...any) (string, error) {
		vals, err := st.Call("f", args...)
		if err != nil {
			return "", err
		}
		return vals[0].(string), nil
	}

	if s, err := call(1); err != nil || s != "int" {
		t.Fatalf("got %q %v", s, err)
	}
	if s, err := call("bark"); err != nil || s != "string" {
		t.Fatalf("got %q %v", s, err)
	}
	if s, err := call(1, 2); err != nil || s != "int,int" {
		t.Fatalf("got %q %v", s, err)
	}

	// the count matches the three-int overload but the last argument
	// cannot convert
	_, err = call(1, 2, "x")
	if KindOf(err) != KindDispatchFailure {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(err.Error(), "string") {
		t.Fatalf("got %v", err)
	}

	// no overload takes zero arguments
	_, err = call()
	if KindOf(err) != KindArityMismatch {
		t.Fatalf("got %v", err)
	}

	// rejection leaves nothing behind
	if st.VM().Top() != 0 {
		t.Fatalf("got %d", st.VM().Top())
	}
}

func TestOverloadFirstMatchWins(t *testing.T) {
	st := NewState()
	defer st.Close()

	ov, err := Overload(
		func(a any) string { return "any" },
		func(a int) string { return "int" },
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.BindFunc("g", ov); err != nil {
		t.Fatal(err)
	}
	vals, err := st.Call("g", 1)
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != "any" {
		t.Fatalf("got %v", vals[0])
	}
}

func TestOverloadFlattens(t *testing.T) {
	st := NewState()
	defer st.Close()

	inner, err := Overload(
		func(a int) string { return "int" },
		func(s string) string { return "string" },
	)
	if err != nil {
		t.Fatal(err)
	}
	outer, err := Overload(inner, func(b bool) string { return "bool" })
	if err != nil {
		t.Fatal(err)
	}
	if err := st.BindFunc("h", outer); err != nil {
		t.Fatal(err)
	}
	vals, err := st.Call("h", true)
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != "bool" {
		t.Fatalf("got %v", vals[0])
	}
}

type counter struct {
	N int
}

func (c *counter) Incr(by int) int {
	c.N += by
	return c.N
}

func (c counter) Peek() int {
	return c.N
}

func TestMethodByReference(t *testing.T) {
	st := NewState()
	defer st.Close()

	c := &counter{N: 10}
	m, err := Method(c, "Incr")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.BindFunc("incr", m); err != nil {
		t.Fatal(err)
	}

	vals, err := st.Call("incr", 5)
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != int64(15) {
		t.Fatalf("got %v", vals[0])
	}
	// mutation is visible on the original
	if c.N != 15 {
		t.Fatalf("got %d", c.N)
	}
}

func TestMethodByValueCopies(t *testing.T) {
	st := NewState()
	defer st.Close()

	c := counter{N: 10}
	m, err := Method(ByValue(c), "Incr")
	if err != nil {
		t.Fatal(err)
	}
	if err := st.BindFunc("incr", m); err != nil {
		t.Fatal(err)
	}

	vals, err := st.Call("incr", 5)
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != int64(15) {
		t.Fatalf("got %v", vals[0])
	}
	// the bound receiver is a copy; the original stays put
	if c.N != 10 {
		t.Fatalf("got %d", c.N)
	}

	// the copy persists across calls
	vals, err = st.Call("incr", 1)
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != int64(16) {
		t.Fatalf("got %v", vals[0])
	}
}

func TestMethodPointerReceiverOnValue(t *testing.T) {
	// a pointer-receiver method looked up on a plain value binds to a copy
	c := counter{N: 1}
	m, err := Method(c, "Incr")
	if err != nil {
		t.Fatal(err)
	}
	_ = m
	if c.N != 1 {
		t.Fatalf("got %d", c.N)
	}
}

func TestMethodMissing(t *testing.T) {
	_, err := Method(counter{}, "Nope")
	if KindOf(err) != KindTypeMismatch {
		t.Fatalf("got %v", err)
	}
}

func TestCallNonCallable(t *testing.T) {
	st := NewState()
	defer st.Close()

	if err := st.Set("n", 1); err != nil {
		t.Fatal(err)
	}
	_, err := st.Call("n")
	if KindOf(err) != KindRuntimeScript {
		t.Fatalf("got %v", err)
	}
	if !strings.Contains(err.Error(), "non-function") {
		t.Fatalf("got %v", err)
	}
}

func TestClosureCapture(t *testing.T) {
	st := NewState()
	defer st.Close()

	total := 0
	if err := st.BindFunc("accumulate", func(n int) int {
		total += n
		return total
	}); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		if _, err := st.Call("accumulate", i); err != nil {
			t.Fatal(err)
		}
	}
	if total != 6 {
		t.Fatalf("got %d", total)
	}
}

func TestFuncRejectsNonFunction(t *testing.T) {
	_, err := Func(42)
	if KindOf(err) != KindTypeMismatch {
		t.Fatalf("got %v", err)
	}
	_, err = Overload()
	if KindOf(err) != KindTypeMismatch {
		t.Fatalf("got %v", err)
	}
}

func TestCallableArgumentConversion(t *testing.T) {
	st := NewState()
	defer st.Close()

	if err := st.BindFunc("describe", func(v any) string {
		return fmt.Sprintf("%T", v)
	}); err != nil {
		t.Fatal(err)
	}
	vals, err := st.Call("describe", 1.5)
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != "float64" {
		t.Fatalf("got %v", vals[0])
	}
}
