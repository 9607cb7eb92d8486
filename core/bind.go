package core

import "weak"

// Slot is an opaque integer tag selecting one of several fan-in/fan-out
// channels on a single node. Zero is the default "whole node" slot;
// AnySlot matches every slot when passed to Notify.
type Slot int

const AnySlot Slot = -1

// BindKey is a stable handle identifying one edge within a source's sink
// table. It stays valid across table compactions because the slab never
// moves a live entry.
type BindKey int

// BindSink is the non-generic view every sink-capable node exposes so a
// source can hold a weak reference to it without knowing its result type.
// *DependencyNode[T] satisfies this for any T because its methods have
// non-generic signatures.
type BindSink interface {
	Notify(slot Slot, level DirtyLevel)
}

// BindSource is the non-generic view every source-capable node exposes.
type BindSource interface {
	Bind(sink WeakSink, slot Slot) BindKey
	Rebind(key BindKey, sink WeakSink, slot Slot)
	Unbind(key BindKey)
	// Check verifies a MaybeDirty source down to a definite answer and
	// reports whether it is (now) actually dirty.
	Check(slot Slot) bool
}

// WeakSink is a type-erased weak reference to a BindSink, built from the
// standard library's weak package. A concrete sink type is never stored
// directly in a source's sink table; only this closure-wrapped weak
// pointer is, so a sink with no remaining strong owners can be collected
// without the source's bookkeeping keeping it alive.
type WeakSink struct {
	get func() BindSink
}

// Get resolves the weak reference, returning nil if the sink has already
// been collected.
func (w WeakSink) Get() BindSink {
	if w.get == nil {
		return nil
	}
	return w.get()
}

func (w WeakSink) isEmpty() bool {
	return w.get == nil
}

// WeakenSink wraps a strong *DependencyNode[T] pointer as a WeakSink.
func WeakenSink[T any](node *DependencyNode[T]) WeakSink {
	wp := weak.Make(node)
	return WeakSink{
		get: func() BindSink {
			p := wp.Value()
			if p == nil {
				return nil
			}
			return p
		},
	}
}

// SinkBinding is a directed edge as seen from a source: a weak reference
// to the sink, the slot on the sink it notifies, and the dirty level this
// source has already told that edge (used only to dedupe redundant
// notify scheduling — the sink's own Check/recompute is what actually
// resolves MaybeDirty, not this field).
type SinkBinding struct {
	sink  WeakSink
	slot  Slot
	dirty Dirty
}

// SinkBindings is the keyed slab a source owns: one entry per sink that
// has bound to it, indexed by the BindKey the sink holds.
type SinkBindings struct {
	slots slab[SinkBinding]
}

func (sbs *SinkBindings) Bind(sink WeakSink, slot Slot) BindKey {
	return BindKey(sbs.slots.insert(SinkBinding{sink: sink, slot: slot, dirty: Clean}))
}

func (sbs *SinkBindings) Rebind(key BindKey, sink WeakSink, slot Slot) {
	if e := sbs.slots.getPtr(int(key)); e != nil {
		e.sink = sink
		e.slot = slot
	}
}

func (sbs *SinkBindings) Unbind(key BindKey) {
	sbs.slots.remove(int(key))
}

func (sbs *SinkBindings) IsEmpty() bool {
	return sbs.slots.isEmpty()
}

// Notify raises every live edge matching slot (AnySlot matches all) to at
// least level and schedules a notify task on rt for each one whose
// recorded level actually rose, so the wave is applied breadth-first
// before any reaction is dispatched. Edges whose weak sink has already
// been collected are pruned.
func (sbs *SinkBindings) Notify(rt *Runtime, slot Slot, level DirtyLevel) {
	var dead []int
	sbs.slots.forEach(func(idx int, b *SinkBinding) {
		if slot != AnySlot && b.slot != slot && b.slot != AnySlot {
			return
		}
		sink := b.sink.Get()
		if sink == nil {
			dead = append(dead, idx)
			return
		}
		merged := level.Merge(b.dirty)
		if merged == b.dirty {
			return
		}
		b.dirty = merged
		if rt != nil {
			rt.ScheduleNotify(sink, b.slot, level)
		} else {
			sink.Notify(b.slot, level)
		}
	})
	for _, idx := range dead {
		sbs.slots.remove(idx)
	}
}

// ResetEdges clears every edge's recorded dirty level back to Clean. A
// source calls this once its own state settles back to UpToDate, so a
// later independent change can notify from a clean slate.
func (sbs *SinkBindings) ResetEdges() {
	sbs.slots.forEach(func(_ int, b *SinkBinding) {
		b.dirty = Clean
	})
}

// SourceBinding is a directed edge as seen from a sink: the source it
// reads, the slot it read, and the BindKey identifying this edge in the
// source's sink table.
type SourceBinding struct {
	source BindSource
	slot   Slot
	key    BindKey
}

// SourceBindings is the ordered, cursor-rebuilt list a sink owns: what it
// read last time it computed, in read order.
type SourceBindings struct {
	bindings []SourceBinding
	cursor   int
}

// Reset positions the write cursor back at the start of the list, ready
// for a fresh compute pass to re-register its reads in order.
func (sb *SourceBindings) Reset() {
	sb.cursor = 0
}

// Update registers a read of (source, slot) during compute. If the entry
// at the current cursor position already matches, the edge is reused
// without touching the source's sink table; otherwise the old edge (if
// any) is unbound and a fresh one is bound in its place.
func (sb *SourceBindings) Update(source BindSource, slot Slot, sink WeakSink) {
	if sb.cursor < len(sb.bindings) {
		existing := &sb.bindings[sb.cursor]
		if existing.source == source && existing.slot == slot {
			sb.cursor++
			return
		}
		existing.source.Unbind(existing.key)
		key := source.Bind(sink, slot)
		*existing = SourceBinding{source: source, slot: slot, key: key}
		sb.cursor++
		return
	}

	key := source.Bind(sink, slot)
	sb.bindings = append(sb.bindings, SourceBinding{source: source, slot: slot, key: key})
	sb.cursor++
}

// Commit drops every entry past the cursor (dependencies read last time
// but not this time) and rewinds the cursor for the next compute.
func (sb *SourceBindings) Commit() {
	for i := sb.cursor; i < len(sb.bindings); i++ {
		b := sb.bindings[i]
		b.source.Unbind(b.key)
	}
	sb.bindings = sb.bindings[:sb.cursor]
	sb.cursor = 0
}

// Check walks every source edge and reports whether any source is
// actually dirty. Used to resolve a MaybeDirty sink without recomputing
// it when every source turns out to be clean.
func (sb *SourceBindings) Check() bool {
	for _, b := range sb.bindings {
		if b.source.Check(b.slot) {
			return true
		}
	}
	return false
}

// UnbindAll immediately unbinds every edge, used when disposing a node
// from within a reaction frame (safe to touch other nodes' sink tables
// synchronously on the runtime's single goroutine).
func (sb *SourceBindings) UnbindAll() {
	for _, b := range sb.bindings {
		b.source.Unbind(b.key)
	}
	sb.bindings = sb.bindings[:0]
	sb.cursor = 0
}

// Close defers every edge's unbind to the runtime's next dispatch pass.
// Used when a SourceBindings is torn down outside a reaction frame (e.g.
// a StateRef's owner chain being collected), where touching another
// node's sink table synchronously would be a re-entrant borrow risk.
func (sb *SourceBindings) Close(rt *Runtime) {
	for _, b := range sb.bindings {
		rt.deferUnbind(b.source, b.key)
	}
	sb.bindings = nil
	sb.cursor = 0
}

func (sb *SourceBindings) IsEmpty() bool {
	return len(sb.bindings) == 0
}
