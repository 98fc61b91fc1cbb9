package strand

import "testing"

func TestPointCompare(t *testing.T) {
	cases := []struct {
		a, b Point
		want int
	}{
		{Point{0, 0}, Point{0, 0}, 0},
		{Point{0, 1}, Point{0, 2}, -1},
		{Point{1, 0}, Point{0, 5}, 1},
		{Point{2, 3}, Point{2, 3}, 0},
	}
	for _, c := range cases {
		if got := c.a.Compare(c.b); got != c.want {
			t.Errorf("%v.Compare(%v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestPointTraverseAndTraversal(t *testing.T) {
	start := Point{Row: 1, Column: 4}
	extent := Point{Row: 0, Column: 3}
	end := start.Traverse(extent)
	if end != (Point{Row: 1, Column: 7}) {
		t.Fatalf("Traverse within a row: got %v", end)
	}
	if back := start.Traversal(end); back != extent {
		t.Fatalf("Traversal should invert Traverse: got %v, want %v", back, extent)
	}

	start = Point{Row: 2, Column: 5}
	multiline := Point{Row: 1, Column: 2}
	end = start.Traverse(multiline)
	if end != (Point{Row: 3, Column: 2}) {
		t.Fatalf("Traverse across rows: got %v", end)
	}
	if back := start.Traversal(end); back != multiline {
		t.Fatalf("Traversal across rows should invert Traverse: got %v, want %v", back, multiline)
	}
}

func TestExtentOfString(t *testing.T) {
	cases := []struct {
		s    string
		want Point
	}{
		{"", Point{0, 0}},
		{"hello", Point{0, 5}},
		{"a\nbb\nccc", Point{2, 3}},
		{"trailing\n", Point{1, 0}},
	}
	for _, c := range cases {
		if got := ExtentOfString(c.s); got != c.want {
			t.Errorf("ExtentOfString(%q) = %v, want %v", c.s, got, c.want)
		}
	}
}
