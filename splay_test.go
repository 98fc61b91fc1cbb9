package strand

import "testing"

// chainFixture builds three segments linked as a plain right-leaning chain
// (a -> b -> c, a at the root) in an otherwise bare DocumentTree, to drive
// rotateLeft/rotateRight/splay directly without going through insertBetween.
func chainFixture(t *testing.T) (*DocumentTree, SegmentID, SegmentID, SegmentID) {
	t.Helper()
	a := newArena()
	dt := newDocumentTree(a, alwaysVisible)

	ids := make([]SegmentID, 3)
	for i := range ids {
		ids[i] = a.alloc(newSegment(SpliceID{SiteID: 1, SequenceNumber: uint32(i + 1)}, ZeroPoint, "x", Point{Row: 0, Column: 1}))
	}
	idA, idB, idC := ids[0], ids[1], ids[2]

	segA := a.get(idA)
	segA.docRight = idB
	segB := a.get(idB)
	segB.docParent = idA
	segB.docRight = idC
	segC := a.get(idC)
	segC.docParent = idB

	dt.root = idA
	dt.update(idC)
	dt.update(idB)
	dt.update(idA)

	return dt, idA, idB, idC
}

func TestRotateLeft(t *testing.T) {
	dt, idA, idB, idC := chainFixture(t)

	newSub := rotateLeft(dt, idA)
	if newSub != idB {
		t.Fatalf("rotateLeft returned %d, want %d", newSub, idB)
	}
	if dt.left(idB) != idA {
		t.Fatalf("idB.left = %d, want idA (%d)", dt.left(idB), idA)
	}
	if dt.right(idB) != idC {
		t.Fatalf("idB.right = %d, want idC (%d)", dt.right(idB), idC)
	}
	if dt.parent(idA) != idB || dt.parent(idC) != idB {
		t.Fatal("idA and idC should both now parent to idB")
	}
	if dt.right(idA) != noSegment {
		t.Fatal("idA should have lost its right child after the rotation")
	}
}

func TestSplayBringsNodeToRoot(t *testing.T) {
	dt, idA, idB, idC := chainFixture(t)

	dt.root = splay(dt, dt.root, idC)
	if dt.root != idC {
		t.Fatalf("after splaying idC, root = %d, want %d", dt.root, idC)
	}
	if dt.parent(idC) != noSegment {
		t.Fatal("root should have no parent")
	}
	// idA and idB must still both be reachable under the new root.
	seen := map[SegmentID]bool{}
	for _, id := range dt.getSegments() {
		seen[id] = true
	}
	if !seen[idA] || !seen[idB] || !seen[idC] {
		t.Fatal("splaying should not drop any node from the tree")
	}
}

func TestLeftmostRightmost(t *testing.T) {
	dt, idA, _, idC := chainFixture(t)
	if got := leftmost(dt, dt.root); got != idA {
		t.Fatalf("leftmost = %d, want %d", got, idA)
	}
	if got := rightmost(dt, dt.root); got != idC {
		t.Fatalf("rightmost = %d, want %d", got, idC)
	}
}
