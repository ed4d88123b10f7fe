package lash

import (
	"reflect"

	"github.com/lashvm/lash/lashvm"
)

// Tag states how a native object's lifetime relates to its runtime-visible
// handle. Exactly one tag governs an exposed object; it is fixed at
// exposure time.
type Tag uint8

const (
	// TagValue copies the object into runtime-owned storage; the
	// collector's finalizer drops the copy.
	TagValue Tag = iota
	// TagPointer stores only the address; the runtime never destroys the
	// object and dereferencing after native destruction is undefined.
	TagPointer
	// TagUnique transfers a move-only handle into runtime-owned storage;
	// exactly one finalizer invocation releases it.
	TagUnique
	// TagShared copies a refcounted handle in; the finalizer releases
	// that one count.
	TagShared
	// TagReference is pointer semantics selected by an explicit wrap
	// request rather than by the static type being a pointer.
	TagReference
)

// Dropper is the native destructor hook invoked by Value/Unique/Shared
// finalizers.
type Dropper interface {
	Drop()
}

// Owned pairs a value with an explicit ownership tag for exposure.
type Owned struct {
	tag Tag
	val any
}

// ByValue exposes a copy of v. Two ByValue exposures of the same object
// are independent copies.
func ByValue(v any) Owned {
	return Owned{tag: TagValue, val: v}
}

// InRef exposes the object p points at by reference: the runtime aliases
// it and never finalizes it.
func InRef(p any) Owned {
	return Owned{tag: TagReference, val: p}
}

func (st *State) pushOwned(o Owned) (int, error) {
	rv := reflect.ValueOf(o.val)
	switch o.tag {
	case TagReference, TagPointer:
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return 0, typeMismatch("by-reference exposure needs a non-nil pointer, got %T", o.val)
		}
	}
	return st.installTagged(o.tag, rv)
}

// installTagged is the single dispatch point that turns a tagged native
// value into a boxed runtime object: one install path per tag, one
// finalize path per tag.
func (st *State) installTagged(tag Tag, rv reflect.Value) (int, error) {
	var payload any
	var fin func(any)

	switch tag {
	case TagValue:
		copied := reflect.New(rv.Type())
		copied.Elem().Set(rv)
		payload = copied.Interface()
		fin = dropPayload
	case TagPointer, TagReference:
		payload = rv.Interface()
		fin = nil
	default:
		return 0, typeMismatch("tag %d is not installable from a plain value", tag)
	}

	ud := st.vm.NewUserdata(payload, st.metaFor(rv.Type()), fin)
	st.vm.Push(ud)
	return 1, nil
}

// dropPayload invokes the native destructor, looking on both the payload
// and its pointee.
func dropPayload(p any) {
	if d, ok := p.(Dropper); ok {
		d.Drop()
		return
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		if d, ok := rv.Elem().Interface().(Dropper); ok {
			d.Drop()
		}
	}
}

// metaFor resolves the installed usertype metadata for a native type, or
// nil when the type was never registered. Pointer types share their
// pointee's metadata.
func (st *State) metaFor(t reflect.Type) *lashvm.Meta {
	if m, ok := st.metas[t]; ok {
		return m
	}
	if t.Kind() == reflect.Pointer {
		if m, ok := st.metas[t.Elem()]; ok {
			return m
		}
	}
	return nil
}

// Unique is a move-only owning cell. Pushing it transfers the payload
// into the runtime and empties the cell.
type Unique[T any] struct {
	val *T
}

func NewUnique[T any](v T) *Unique[T] {
	return &Unique[T]{val: &v}
}

// Empty reports whether ownership has been transferred away.
func (u *Unique[T]) Empty() bool {
	return u.val == nil
}

// Take moves the payload out, if still held.
func (u *Unique[T]) Take() (T, bool) {
	if u.val == nil {
		var zero T
		return zero, false
	}
	v := *u.val
	u.val = nil
	return v, true
}

type uniqueOwner interface {
	takeOwned() (payload any, ok bool)
}

func (u *Unique[T]) takeOwned() (any, bool) {
	if u.val == nil {
		return nil, false
	}
	p := u.val
	u.val = nil
	return p, true
}

func (st *State) pushUnique(u uniqueOwner) (int, error) {
	payload, ok := u.takeOwned()
	if !ok {
		return 0, typeMismatch("unique handle is empty: ownership was already transferred")
	}
	meta := st.metaFor(reflect.TypeOf(payload))
	ud := st.vm.NewUserdata(payload, meta, dropPayload)
	st.vm.Push(ud)
	return 1, nil
}

// Shared is a reference-counted handle. Copies made with Retain, and
// copies held by the runtime, all observe one count; the payload is
// dropped when the count reaches zero.
type Shared[T any] struct {
	box *sharedBox[T]
}

type sharedBox[T any] struct {
	val  T
	refs int
}

func NewShared[T any](v T) Shared[T] {
	return Shared[T]{box: &sharedBox[T]{val: v, refs: 1}}
}

// Retain produces one more owning handle.
func (s Shared[T]) Retain() Shared[T] {
	s.box.refs++
	return s
}

// Release gives up one count, dropping the payload at zero.
func (s Shared[T]) Release() {
	if s.box == nil || s.box.refs <= 0 {
		return
	}
	s.box.refs--
	if s.box.refs == 0 {
		dropPayload(&s.box.val)
	}
}

// Get returns a pointer to the shared payload.
func (s Shared[T]) Get() *T {
	if s.box == nil {
		return nil
	}
	return &s.box.val
}

// RefCount reports the current count, as observed from native code.
func (s Shared[T]) RefCount() int {
	if s.box == nil {
		return 0
	}
	return s.box.refs
}

type sharedOwner interface {
	retainOwned() (payload any, release func(any))
}

func (s Shared[T]) retainOwned() (any, func(any)) {
	retained := s.Retain()
	return retained, func(p any) {
		p.(Shared[T]).Release()
	}
}

func (st *State) pushShared(s sharedOwner) (int, error) {
	payload, release := s.retainOwned()
	meta := st.metaFor(reflect.TypeOf(payload))
	ud := st.vm.NewUserdata(payload, meta, release)
	st.vm.Push(ud)
	return 1, nil
}
