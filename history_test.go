package strand

import "testing"

func TestCloneMarkerSnapshotNil(t *testing.T) {
	if got := cloneMarkerSnapshot(nil); got != nil {
		t.Fatalf("cloneMarkerSnapshot(nil) = %v, want nil", got)
	}
}

func TestCloneMarkerSnapshotIsIndependent(t *testing.T) {
	orig := markerSnapshot{
		0: {0: LogicalMarker{Range: LogicalRange{}}},
	}
	clone := cloneMarkerSnapshot(orig)

	clone[0][1] = LogicalMarker{Exclusive: true}
	if _, ok := orig[0][1]; ok {
		t.Fatal("mutating the clone should not affect the original snapshot")
	}

	delete(clone, 0)
	if _, ok := orig[0]; !ok {
		t.Fatal("deleting a layer from the clone should not affect the original snapshot")
	}
}
