package strand

// SplitTree is the per-splice index of that splice's segments, keyed by
// offset within the splice's originally inserted text. Its aggregate is
// the raw total extent of the subtree, visibility-agnostic unlike the
// document tree's aggregate. A replica keeps one split-tree root per
// insertion splice (and per sentinel); rather than a heavyweight object per splice, the
// accessor set is stateless (it only needs the shared arena) and callers
// thread the current root id through each call, mirroring how the splay
// base in splay.go only needs an accessor, not a tree object.
type SplitTree struct {
	arena *arena
}

func newSplitTree(a *arena) *SplitTree {
	return &SplitTree{arena: a}
}

func (t *SplitTree) left(id SegmentID) SegmentID   { return t.arena.get(id).splitLeft }
func (t *SplitTree) setLeft(id, child SegmentID)   { t.arena.get(id).splitLeft = child }
func (t *SplitTree) right(id SegmentID) SegmentID  { return t.arena.get(id).splitRight }
func (t *SplitTree) setRight(id, child SegmentID)  { t.arena.get(id).splitRight = child }
func (t *SplitTree) parent(id SegmentID) SegmentID { return t.arena.get(id).splitParent }
func (t *SplitTree) setParent(id, p SegmentID)     { t.arena.get(id).splitParent = p }

// update recomputes id's raw subtree extent from its children and its own
// text extent, ignoring visibility entirely.
func (t *SplitTree) update(id SegmentID) {
	seg := t.arena.get(id)
	ext := seg.extent
	if seg.splitLeft != noSegment {
		ext = t.arena.get(seg.splitLeft).splitSubtreeExtent.Traverse(ext)
	}
	if seg.splitRight != noSegment {
		ext = ext.Traverse(t.arena.get(seg.splitRight).splitSubtreeExtent)
	}
	seg.splitSubtreeExtent = ext
}

// splayUp splays id to the root of the tree rooted at root, returning the
// new root.
func (t *SplitTree) splayUp(root, id SegmentID) SegmentID {
	if id == noSegment {
		return root
	}
	return splay(t, root, id)
}

// findSegmentContainingOffset descends a split tree rooted at root looking
// for the piece containing offsetInSplice, analogous to
// DocumentTree.findSegmentContainingPosition but keyed by raw offset
// rather than visible position.
func (t *SplitTree) findSegmentContainingOffset(root SegmentID, offsetInSplice Point) (SegmentID, Point, error) {
	id := root
	base := ZeroPoint
	for id != noSegment {
		seg := t.arena.get(id)
		leftExt := ZeroPoint
		if seg.splitLeft != noSegment {
			leftExt = t.arena.get(seg.splitLeft).splitSubtreeExtent
		}
		segStart := base.Traverse(leftExt)
		segEnd := segStart.Traverse(seg.extent)

		switch {
		case offsetInSplice.Compare(segStart) < 0:
			id = seg.splitLeft
		case offsetInSplice.Compare(segEnd) < 0:
			return id, segStart, nil
		case offsetInSplice.Compare(segEnd) == 0:
			if seg.splitRight == noSegment {
				return id, segStart, nil
			}
			base = segEnd
			id = seg.splitRight
		default:
			base = segEnd
			id = seg.splitRight
		}
	}
	return noSegment, ZeroPoint, ErrSegmentNotFound
}

// splitSegment splits segID at offsetInSegment (relative to the start of
// segID's own text), creating a suffix segment that inherits segID's
// deletions (by copy), nextSplit pointer, and split-tree right subtree.
// It rewires the split tree so the suffix becomes root with segID as its
// left child, and returns the new root plus the suffix's id. The caller
// is responsible for mirroring the split into the document tree.
func (t *SplitTree) splitSegment(root, segID SegmentID, offsetInSegment Point) (newRoot SegmentID, suffixID SegmentID) {
	seg := t.arena.get(segID)
	before, after := splitTextAtPoint(seg.text, offsetInSegment)

	// Both pieces keep the original segment's leftDependency/
	// rightDependency unchanged: those describe where the whole splice
	// was anchored at creation time, not this particular piece's
	// immediate neighbors, and the integration ordering rule (§4.1.2)
	// compares them across arbitrarily-split pieces of the same splice.
	suffix := newSegment(seg.spliceID, seg.offset.Traverse(offsetInSegment), after, offsetInSegment.Traversal(seg.extent))
	suffix.deletions = seg.deletions.Clone()
	suffix.leftDependency = seg.leftDependency
	suffix.rightDependency = seg.rightDependency
	suffix.nextSplit = seg.nextSplit
	suffixID = t.arena.alloc(suffix)

	// alloc may have grown the arena's backing slice, invalidating any
	// pointer obtained before this point; re-fetch before writing.
	seg = t.arena.get(segID)
	seg.text = before
	seg.extent = offsetInSegment
	seg.nextSplit = suffixID

	root = t.splayUp(root, segID)
	seg = t.arena.get(segID)
	right := seg.splitRight
	seg.splitRight = noSegment

	sx := t.arena.get(suffixID)
	sx.splitLeft = segID
	sx.splitRight = right
	sx.splitParent = noSegment
	seg.splitParent = suffixID
	if right != noSegment {
		t.arena.get(right).splitParent = suffixID
	}

	t.update(segID)
	t.update(suffixID)
	return suffixID, suffixID // suffix becomes the new subtree root
}

// getSegments returns every piece of the split tree rooted at root, in
// splice-offset order.
func (t *SplitTree) getSegments(root SegmentID) []SegmentID {
	var result []SegmentID
	stack := make([]SegmentID, 0, 8)
	cur := root
	for cur != noSegment || len(stack) > 0 {
		for cur != noSegment {
			stack = append(stack, cur)
			cur = t.arena.get(cur).splitLeft
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, cur)
		cur = t.arena.get(cur).splitRight
	}
	return result
}
