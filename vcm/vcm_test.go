package vcm

import "testing"

func TestRecordAccumulates(t *testing.T) {
	m := New()
	m.Record(OpAdd, 1)
	m.Record(OpAdd, 1)
	m.Record(OpAdd, 1)
	if got := m.Count(OpAdd); got != 3 {
		t.Fatalf("Count(OpAdd) = %d, want 3", got)
	}
}

func TestRecordWithStoresFields(t *testing.T) {
	m := New()
	m.RecordWith(OpCall, CounterFields{Depth: 2, InputSize: 64})
	if got := m.Count(OpCall); got != 1 {
		t.Fatalf("Count(OpCall) = %d, want 1", got)
	}
	if got := m.Fields(OpCall); got.Depth != 2 || got.InputSize != 64 {
		t.Fatalf("Fields(OpCall) = %+v, want Depth=2 InputSize=64", got)
	}
}

func TestMergeAddsChildCounts(t *testing.T) {
	parent := New()
	parent.Record(OpAdd, 5)

	child := New()
	child.Record(OpAdd, 2)
	child.Record(OpMul, 1)

	parent.Merge(child)

	if got := parent.Count(OpAdd); got != 7 {
		t.Fatalf("parent Count(OpAdd) = %d, want 7", got)
	}
	if got := parent.Count(OpMul); got != 1 {
		t.Fatalf("parent Count(OpMul) = %d, want 1", got)
	}
}

func TestMergeNilChildIsNoop(t *testing.T) {
	parent := New()
	parent.Record(OpAdd, 5)
	parent.Merge(nil)
	if got := parent.Count(OpAdd); got != 5 {
		t.Fatalf("Count(OpAdd) = %d, want 5", got)
	}
}

func TestMergePreservesLatestFields(t *testing.T) {
	parent := New()
	parent.RecordWith(OpCreate, CounterFields{BytecodeLength: 10})

	child := New()
	child.RecordWith(OpCreate, CounterFields{BytecodeLength: 20})

	parent.Merge(child)

	if got := parent.Count(OpCreate); got != 2 {
		t.Fatalf("Count(OpCreate) = %d, want 2", got)
	}
	if got := parent.Fields(OpCreate); got.BytecodeLength != 20 {
		t.Fatalf("Fields(OpCreate).BytecodeLength = %d, want 20 (child's)", got.BytecodeLength)
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	m := New()
	m.Record(OpAdd, 1)
	snap := m.Snapshot()
	m.Record(OpAdd, 1)
	if snap[OpAdd] != 1 {
		t.Fatalf("snapshot mutated by later Record: got %d, want 1", snap[OpAdd])
	}
}
