package vm

// GC is the tri-color mark-sweep collector described in spec §4.11
// (component C7). It is non-moving and single-pass: because the VM is
// single-threaded (spec §5), a collection never needs to run concurrently
// with mutation, so "incremental" here means "triggered at well-defined GC
// points", not "interleaved with the interpreter loop instruction by
// instruction".
//
// No repo in the retrieval pack implements an explicit mark-sweep
// collector of this shape — every Go VM in the pack (the teacher
// included) leans on Go's own garbage collector instead of modeling one
// over a custom id-keyed heap, because spec's HeapRef(id) + non-pointer
// Heap(§3, §9) model has no analogue there. This file is accordingly
// grounded directly on spec §4.11's algorithm description rather than a
// retrieved implementation; see DESIGN.md.
type GC struct {
	threshold uint32
	grow      float64
}

// defaultGCThresholdStart and defaultGCGrow reuse the original source's
// bootstrap constants (GC_THR_START = 8000, GC_THR_GROW = 1.5) per
// SPEC_FULL.md's supplemented-features note — spec §4.11 only requires
// *some* bootstrap threshold and a GROW >= 1.0.
const (
	defaultGCThresholdStart uint32  = 8000
	defaultGCGrow           float64 = 1.5
)

// NewGC returns a collector with the default threshold/growth factor.
func NewGC() *GC {
	return &GC{threshold: defaultGCThresholdStart, grow: defaultGCGrow}
}

// NewGCWithThreshold allows tests to force a tiny threshold so a collection
// is observable after a handful of allocations, without waiting 8000 of
// them (spec §8's GC-reclamation seed scenario).
func NewGCWithThreshold(start uint32, grow float64) *GC {
	return &GC{threshold: start, grow: grow}
}

// point runs a collection if the heap has grown past the current
// threshold, then grows the threshold for next time (spec §4.11: "After
// each pass the threshold is set to post_heap_size × GROW").
func (g *GC) point(vm *VM) {
	if uint32(vm.heap.Len()) <= g.threshold {
		return
	}
	g.collect(vm)
	g.threshold = uint32(float64(vm.heap.Len()) * g.grow)
}

// collect runs one full mark-sweep pass: reset every mark bit, mark
// everything reachable from the VM's roots, then sweep whatever is still
// unmarked.
func (g *GC) collect(vm *VM) {
	vm.heap.resetMarks()

	var gray []uint32 // the "gray" worklist: marked but not yet scanned for children
	markRoot := func(id uint32) {
		if vm.heap.mark(id) {
			gray = append(gray, id)
		}
	}

	vm.markValueRoots(markRoot)

	// Drain the gray worklist, turning each gray object black by marking
	// its children (which may themselves turn gray). White objects never
	// touched by this loop are exactly the ones sweep reclaims.
	for len(gray) > 0 {
		id := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		obj := vm.heap.get(id)
		if obj == nil {
			continue
		}
		for _, childID := range obj.refs() {
			markRoot(childID)
		}
	}

	vm.heap.sweepUnmarked()
}
