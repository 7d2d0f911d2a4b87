package subaru

import (
	"os"
	"reflect"
	"testing"
)

func TestDependentsRecordAndList(t *testing.T) {
	s := newTestSettings(t)
	ds := NewDependentsStore(s)
	dependee := "mingw-w64-x86_64-zlib-1.3-1"

	if err := ds.Record(dependee, "mingw-w64-x86_64-libpng-1.6-1"); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if err := ds.Record(dependee, "mingw-w64-x86_64-freetype-2.13-1"); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	// Recording the same dependent twice is a no-op.
	if err := ds.Record(dependee, "mingw-w64-x86_64-libpng-1.6-1"); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	got, err := ds.List(dependee)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	want := []string{"mingw-w64-x86_64-libpng-1.6-1", "mingw-w64-x86_64-freetype-2.13-1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestDependentsSelfEdge(t *testing.T) {
	s := newTestSettings(t)
	ds := NewDependentsStore(s)
	full := "mingw-w64-x86_64-zlib-1.3-1"

	if err := ds.Record(full, full); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	got, err := ds.List(full)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if got != nil {
		t.Errorf("List() = %v, a package must not be its own dependent", got)
	}
}

func TestDependentsListUnknown(t *testing.T) {
	s := newTestSettings(t)
	ds := NewDependentsStore(s)

	got, err := ds.List("mingw-w64-x86_64-never-recorded-1.0-1")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if got != nil {
		t.Errorf("List() = %v, want nil for an unknown dependee", got)
	}
}

func TestDependentsRemoveFor(t *testing.T) {
	s := newTestSettings(t)
	ds := NewDependentsStore(s)
	dependee := "mingw-w64-x86_64-zlib-1.3-1"

	if err := ds.Record(dependee, "mingw-w64-x86_64-libpng-1.6-1"); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if err := ds.RemoveFor(dependee); err != nil {
		t.Fatalf("RemoveFor() failed: %v", err)
	}
	if _, err := os.Stat(ds.path(dependee)); !os.IsNotExist(err) {
		t.Error("dependents record should be gone after RemoveFor()")
	}
	// Removing a record that is already gone is fine.
	if err := ds.RemoveFor(dependee); err != nil {
		t.Errorf("RemoveFor() on missing record = %v, want nil", err)
	}
}
