package allocation

// Optional holds a line attribute that may be absent. A present zero value
// (for example a rate of 0) is still present.
type Optional[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, ok: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr treats a nil pointer as absent.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// NonEmpty treats a nil pointer or an empty string as absent.
func NonEmpty(p *string) Optional[string] {
	if p == nil || *p == "" {
		return None[string]()
	}
	return Some(*p)
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether a value is set.
func (o Optional[T]) Present() bool {
	return o.ok
}

// Ptr returns nil when absent, for JSON encoding.
func (o Optional[T]) Ptr() *T {
	if !o.ok {
		return nil
	}
	v := o.value
	return &v
}
