package core

// EqualFunc reports whether two values of T should be treated as equal
// for dedup purposes. Used wherever a constructor needs a custom
// equality policy instead of a `comparable` constraint — T is frequently
// not comparable (it may contain slices, maps, or funcs), so the policy
// has to be supplied rather than assumed. Mirrors the EqualFunc type in
// the example pack's coregx-signals library.
type EqualFunc[T any] func(a, b T) bool

// PanicHandler receives a recovered panic value and its stack trace, the
// same shape the example pack's coregx-signals Options.OnPanic field
// uses for custom panic handling in user compute closures.
type PanicHandler func(recovered any, stack []byte)
