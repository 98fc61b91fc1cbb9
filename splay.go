package strand

// splayOps is the accessor set a splay tree is built over. Per the
// specification's design notes, the splay base is expressed as an
// interface over accessors rather than inheritance, so the document tree
// and the split tree can each supply their own accessor set over the same
// underlying Segment records without virtual dispatch creeping into the
// Segment type itself.
type splayOps interface {
	left(id SegmentID) SegmentID
	setLeft(id, child SegmentID)
	right(id SegmentID) SegmentID
	setRight(id, child SegmentID)
	parent(id SegmentID) SegmentID
	setParent(id, p SegmentID)

	// update recomputes id's subtree aggregate from its current children
	// and own contribution. Called bottom-up after every structural
	// change that could invalidate it.
	update(id SegmentID)
}

// rotateLeft rotates id's right child up, making it id's new parent.
// Returns the new subtree root (the former right child).
func rotateLeft(ops splayOps, id SegmentID) SegmentID {
	r := ops.right(id)
	if r == noSegment {
		return id
	}
	p := ops.parent(id)

	ops.setRight(id, ops.left(r))
	if ops.left(r) != noSegment {
		ops.setParent(ops.left(r), id)
	}

	ops.setLeft(r, id)
	ops.setParent(id, r)
	ops.setParent(r, p)
	if p != noSegment {
		if ops.left(p) == id {
			ops.setLeft(p, r)
		} else if ops.right(p) == id {
			ops.setRight(p, r)
		}
	}

	ops.update(id)
	ops.update(r)
	return r
}

// rotateRight rotates id's left child up, making it id's new parent.
// Returns the new subtree root (the former left child).
func rotateRight(ops splayOps, id SegmentID) SegmentID {
	l := ops.left(id)
	if l == noSegment {
		return id
	}
	p := ops.parent(id)

	ops.setLeft(id, ops.right(l))
	if ops.right(l) != noSegment {
		ops.setParent(ops.right(l), id)
	}

	ops.setRight(l, id)
	ops.setParent(id, l)
	ops.setParent(l, p)
	if p != noSegment {
		if ops.left(p) == id {
			ops.setLeft(p, l)
		} else if ops.right(p) == id {
			ops.setRight(p, l)
		}
	}

	ops.update(id)
	ops.update(l)
	return l
}

// splay brings id to the root of its tree via a standard bottom-up
// zig/zig-zig/zig-zag splay, returning the new root. root is the caller's
// current root id, used only to detect when id has already reached the
// top; the caller is responsible for storing the returned value back into
// its own root field.
func splay(ops splayOps, root SegmentID, id SegmentID) SegmentID {
	if id == noSegment {
		return root
	}
	for {
		p := ops.parent(id)
		if p == noSegment {
			return id
		}
		gp := ops.parent(p)
		if gp == noSegment {
			// Zig: id is a child of the root.
			if ops.left(p) == id {
				rotateRight(ops, p)
			} else {
				rotateLeft(ops, p)
			}
			return id
		}

		pIsLeftOfGp := ops.left(gp) == p
		idIsLeftOfP := ops.left(p) == id

		switch {
		case pIsLeftOfGp && idIsLeftOfP:
			// Zig-zig: rotate right twice.
			rotateRight(ops, gp)
			rotateRight(ops, p)
		case !pIsLeftOfGp && !idIsLeftOfP:
			// Zig-zig: rotate left twice.
			rotateLeft(ops, gp)
			rotateLeft(ops, p)
		case pIsLeftOfGp && !idIsLeftOfP:
			// Zig-zag.
			rotateLeft(ops, p)
			rotateRight(ops, gp)
		default:
			// Zig-zag, mirrored.
			rotateRight(ops, p)
			rotateLeft(ops, gp)
		}
	}
}

// leftmost walks to the leftmost descendant of id (id itself if it has no
// left child).
func leftmost(ops splayOps, id SegmentID) SegmentID {
	for ops.left(id) != noSegment {
		id = ops.left(id)
	}
	return id
}

// rightmost walks to the rightmost descendant of id.
func rightmost(ops splayOps, id SegmentID) SegmentID {
	for ops.right(id) != noSegment {
		id = ops.right(id)
	}
	return id
}
