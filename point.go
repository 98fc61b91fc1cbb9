package strand

// Point is a (row, column) pair used throughout the replica as a
// line/character extent or absolute position. The zero Point, (0,0), is the
// document origin.
//
// Points compare lexicographically: a Point with a smaller row is always
// "less than" one with a larger row, regardless of column; within the same
// row, columns compare directly.
type Point struct {
	Row    int64
	Column int64
}

// ZeroPoint is the document origin.
var ZeroPoint = Point{}

// Compare returns -1, 0, or 1 as p is less than, equal to, or greater than
// other.
func (p Point) Compare(other Point) int {
	switch {
	case p.Row < other.Row:
		return -1
	case p.Row > other.Row:
		return 1
	case p.Column < other.Column:
		return -1
	case p.Column > other.Column:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether p is the origin.
func (p Point) IsZero() bool {
	return p.Row == 0 && p.Column == 0
}

// Traverse concatenates two extents: it treats p as an extent and b as a
// second extent that follows it, and returns the extent of the
// concatenation. If b.Row == 0, the traversal stays on p's last row and
// simply adds b's column; otherwise it advances by b's rows and adopts
// b's column as the new column.
func (p Point) Traverse(b Point) Point {
	if b.Row == 0 {
		return Point{Row: p.Row, Column: p.Column + b.Column}
	}
	return Point{Row: p.Row + b.Row, Column: b.Column}
}

// Traversal is the inverse of Traverse: given end >= start, it returns the
// extent b such that start.Traverse(b) == end.
func (start Point) Traversal(end Point) Point {
	if start.Row == end.Row {
		return Point{Row: 0, Column: end.Column - start.Column}
	}
	return Point{Row: end.Row - start.Row, Column: end.Column}
}

// ExtentOfString returns the Point extent of s: the number of newlines is
// the row count, and the number of runes after the last newline (or in all
// of s, if there is none) is the column count.
func ExtentOfString(s string) Point {
	var row, col int64
	for _, r := range s {
		if r == '\n' {
			row++
			col = 0
		} else {
			col++
		}
	}
	return Point{Row: row, Column: col}
}
