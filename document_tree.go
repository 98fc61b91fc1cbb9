package strand

// DocumentTree is the global ordered index of every segment in a replica.
// In-order traversal yields the document's linear sequence. It is a splay
// tree keyed by document position, with two per-subtree aggregates:
// visible extent (sum of Point extents over visible segments) and subtree
// size (1 per node, for integer indexing).
type DocumentTree struct {
	arena   *arena
	root    SegmentID
	countOf func(SpliceID) uint32
}

func newDocumentTree(a *arena, countOf func(SpliceID) uint32) *DocumentTree {
	return &DocumentTree{arena: a, root: noSegment, countOf: countOf}
}

func (t *DocumentTree) left(id SegmentID) SegmentID       { return t.arena.get(id).docLeft }
func (t *DocumentTree) setLeft(id, child SegmentID)       { t.arena.get(id).docLeft = child }
func (t *DocumentTree) right(id SegmentID) SegmentID      { return t.arena.get(id).docRight }
func (t *DocumentTree) setRight(id, child SegmentID)      { t.arena.get(id).docRight = child }
func (t *DocumentTree) parent(id SegmentID) SegmentID     { return t.arena.get(id).docParent }
func (t *DocumentTree) setParent(id, p SegmentID)         { t.arena.get(id).docParent = p }

// update recomputes id's subtree size and visible-extent aggregates from
// its current children and its own visibility under t.countOf.
func (t *DocumentTree) update(id SegmentID) {
	seg := t.arena.get(id)
	size := int64(1)
	ext := seg.visibleExtent(t.countOf)
	if seg.docLeft != noSegment {
		l := t.arena.get(seg.docLeft)
		size += l.docSubtreeSize
		ext = l.docSubtreeVisibleExtent.Traverse(ext)
	}
	if seg.docRight != noSegment {
		r := t.arena.get(seg.docRight)
		size += r.docSubtreeSize
		ext = ext.Traverse(r.docSubtreeVisibleExtent)
	}
	seg.docSubtreeSize = size
	seg.docSubtreeVisibleExtent = ext
}

// splayUp brings id to the root of the tree.
func (t *DocumentTree) splayUp(id SegmentID) {
	if id == noSegment {
		return
	}
	t.root = splay(t, t.root, id)
}

// visibleExtent returns the total visible extent of the whole document.
func (t *DocumentTree) visibleExtent() Point {
	if t.root == noSegment {
		return ZeroPoint
	}
	return t.arena.get(t.root).docSubtreeVisibleExtent
}

// findSegmentContainingPosition descends the tree comparing p against the
// running left-ancestor end plus left-subtree visible extent, per spec
// §4.2. The first (start) sentinel is never returned as a match for p==0;
// the descent continues right until it reaches the first segment with
// nonzero visible extent, or the end sentinel if the document is empty.
func (t *DocumentTree) findSegmentContainingPosition(p Point) (SegmentID, Point, error) {
	id := t.root
	offset := ZeroPoint
	for id != noSegment {
		seg := t.arena.get(id)
		leftExt := ZeroPoint
		if seg.docLeft != noSegment {
			leftExt = t.arena.get(seg.docLeft).docSubtreeVisibleExtent
		}
		segStart := offset.Traverse(leftExt)
		ownExt := seg.visibleExtent(t.countOf)
		segEnd := segStart.Traverse(ownExt)

		switch {
		case p.Compare(segStart) < 0:
			id = seg.docLeft
		case p.Compare(segEnd) < 0:
			return id, segStart, nil
		case ownExt.IsZero() && p.Compare(segEnd) == 0:
			if seg.docRight == noSegment {
				return id, segStart, nil
			}
			offset = segEnd
			id = seg.docRight
		default:
			offset = segEnd
			id = seg.docRight
		}
	}
	return noSegment, ZeroPoint, ErrPositionOutOfRange
}

// insertBetween splices a newly-created segment into the tree directly
// between prev and next, which must be adjacent in document order (no
// other segment currently between them). Either may be noSegment to
// signal "at the very start/end of the tree".
func (t *DocumentTree) insertBetween(prev, next, newID SegmentID) {
	n := t.arena.get(newID)

	switch {
	case prev == noSegment && next == noSegment:
		t.root = newID
		n.docLeft, n.docRight, n.docParent = noSegment, noSegment, noSegment
		t.update(newID)

	case prev == noSegment:
		t.splayUp(next)
		nx := t.arena.get(next)
		n.docLeft, n.docRight, n.docParent = noSegment, next, noSegment
		nx.docParent = newID
		t.root = newID
		t.update(next)
		t.update(newID)

	case next == noSegment:
		t.splayUp(prev)
		pv := t.arena.get(prev)
		n.docLeft, n.docRight, n.docParent = prev, noSegment, noSegment
		pv.docParent = newID
		t.root = newID
		t.update(prev)
		t.update(newID)

	default:
		t.splayUp(prev)
		pv := t.arena.get(prev)
		right := pv.docRight
		pv.docRight = noSegment
		if right != noSegment {
			t.arena.get(right).docParent = noSegment
		}
		t.update(prev)

		// Splay next up within the detached right subtree; because prev
		// and next are adjacent, next becomes that subtree's root with no
		// left child.
		t.root = right
		t.splayUp(next)
		nx := t.arena.get(next)
		nx.docLeft = noSegment

		n.docLeft, n.docRight, n.docParent = prev, next, noSegment
		pv.docParent = newID
		nx.docParent = newID
		t.root = newID
		t.update(next)
		t.update(newID)
	}
}

// splitSegment installs suffixID into the tree immediately after
// prefixID, taking over prefixID's right subtree. The caller is
// responsible for the actual text/extent split on the segments
// themselves; this only fixes up tree structure.
func (t *DocumentTree) splitSegment(prefixID, suffixID SegmentID) {
	t.splayUp(prefixID)
	pv := t.arena.get(prefixID)
	right := pv.docRight
	pv.docRight = noSegment

	sx := t.arena.get(suffixID)
	sx.docLeft = prefixID
	sx.docRight = right
	sx.docParent = noSegment
	pv.docParent = suffixID
	if right != noSegment {
		t.arena.get(right).docParent = suffixID
	}
	t.root = suffixID
	t.update(prefixID)
	t.update(suffixID)
}

// getSegmentIndex counts id's position by summing left-subtree sizes while
// walking up to the root. It does not splay.
func (t *DocumentTree) getSegmentIndex(id SegmentID) int64 {
	seg := t.arena.get(id)
	var index int64
	if seg.docLeft != noSegment {
		index += t.arena.get(seg.docLeft).docSubtreeSize
	}
	cur := id
	for p := seg.docParent; p != noSegment; {
		parent := t.arena.get(p)
		if parent.docRight == cur {
			index++
			if parent.docLeft != noSegment {
				index += t.arena.get(parent.docLeft).docSubtreeSize
			}
		}
		cur = p
		p = parent.docParent
	}
	return index
}

// getSegmentPosition splays id to the root and returns its left subtree's
// visible extent, i.e. id's starting position in the document.
func (t *DocumentTree) getSegmentPosition(id SegmentID) Point {
	t.splayUp(id)
	seg := t.arena.get(id)
	if seg.docLeft == noSegment {
		return ZeroPoint
	}
	return t.arena.get(seg.docLeft).docSubtreeVisibleExtent
}

// getSegments returns every segment in document order via a non-recursive
// in-order traversal.
func (t *DocumentTree) getSegments() []SegmentID {
	var result []SegmentID
	stack := make([]SegmentID, 0, 32)
	cur := t.root
	for cur != noSegment || len(stack) > 0 {
		for cur != noSegment {
			stack = append(stack, cur)
			cur = t.arena.get(cur).docLeft
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, cur)
		cur = t.arena.get(cur).docRight
	}
	return result
}

// successor returns the next segment in document order after id, or
// noSegment if id is last.
func (t *DocumentTree) successor(id SegmentID) SegmentID {
	seg := t.arena.get(id)
	if seg.docRight != noSegment {
		return leftmost(t, seg.docRight)
	}
	cur := id
	p := seg.docParent
	for p != noSegment && t.arena.get(p).docRight == cur {
		cur = p
		p = t.arena.get(p).docParent
	}
	return p
}

// predecessor returns the previous segment in document order before id, or
// noSegment if id is first.
func (t *DocumentTree) predecessor(id SegmentID) SegmentID {
	seg := t.arena.get(id)
	if seg.docLeft != noSegment {
		return rightmost(t, seg.docLeft)
	}
	cur := id
	p := seg.docParent
	for p != noSegment && t.arena.get(p).docLeft == cur {
		cur = p
		p = t.arena.get(p).docParent
	}
	return p
}
