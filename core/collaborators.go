package core

// This file documents, without implementing, the surface a collection
// type (a SignalVec or SignalSlabMap layered over the core) would need.
// Those collection types are out of scope here; what follows is the
// contract they are expected to use, pinned down with compile-time
// interface checks so it cannot silently drift as the core evolves.
//
// A collection node needs to:
//   - register one sink slot per element key plus one "any" slot, and
//     notify them independently: SinkBindings.Bind/Notify already take a
//     Slot, so a collection's element-keyed fan-out is just "one BindKey
//     per key, reusing the same SinkBindings".
//   - implement BindSource/BindSink itself, so its own elements' edges
//     and its consumers' edges compose with the rest of the graph exactly
//     like a DependencyNode's.
//   - call ScheduleNotify from a finalizer-triggered path (the same
//     deferred-unbind mechanism SourceBindings.Close uses) when an element
//     is removed outside of a reaction frame.
var (
	_ BindSource = (*DependencyNode[int])(nil)
	_ BindSink   = (*DependencyNode[int])(nil)
)
