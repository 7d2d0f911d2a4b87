package subaru

import (
	"reflect"
	"strings"
	"testing"
)

func TestInstalledRecordAndList(t *testing.T) {
	s := newTestSettings(t)
	st := NewInstalledStore(s)

	if got, err := st.List(); err != nil || got != nil {
		t.Fatalf("List() on fresh state = %v, %v; want nil, nil", got, err)
	}

	if err := st.Record("mingw-w64-x86_64-zlib-1.3-1", []string{"/opt/x/lib/libz.dll.a"}); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if err := st.Record("mingw-w64-x86_64-gcc-13.2.0-6", []string{"/opt/x/bin/gcc.exe"}); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	got, err := st.List()
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	want := []string{"mingw-w64-x86_64-gcc-13.2.0-6", "mingw-w64-x86_64-zlib-1.3-1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}

	if !st.IsInstalled("mingw-w64-x86_64-zlib-1.3-1") {
		t.Error("IsInstalled() = false for a recorded package")
	}
	if st.IsInstalled("mingw-w64-x86_64-zlib-1.2-1") {
		t.Error("IsInstalled() = true for a version that was never recorded")
	}
}

func TestInstalledManifestFiles(t *testing.T) {
	s := newTestSettings(t)
	st := NewInstalledStore(s)
	full := "mingw-w64-x86_64-zlib-1.3-1"

	manifest := []string{
		"/opt/x/include/",
		"/opt/x/include/zlib.h",
		"/opt/x/lib/",
		"/opt/x/lib/libz.dll.a",
	}
	if err := st.Record(full, manifest); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	got, err := st.ManifestFiles(full)
	if err != nil {
		t.Fatalf("ManifestFiles() failed: %v", err)
	}
	if !reflect.DeepEqual(got, manifest) {
		t.Errorf("ManifestFiles() = %v, want recorded order preserved %v", got, manifest)
	}
}

func TestInstalledMissingManifest(t *testing.T) {
	s := newTestSettings(t)
	st := NewInstalledStore(s)

	_, err := st.ManifestFiles("mingw-w64-x86_64-ghost-1.0-1")
	if err == nil {
		t.Fatal("ManifestFiles() should fail for a package with no manifest")
	}
	if !strings.Contains(err.Error(), "state may be corrupt") {
		t.Errorf("error = %v, want corrupt-state wording", err)
	}
}

func TestInstalledRemove(t *testing.T) {
	s := newTestSettings(t)
	st := NewInstalledStore(s)
	full := "mingw-w64-x86_64-zlib-1.3-1"

	if err := st.Record(full, nil); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if err := st.Remove(full); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if st.IsInstalled(full) {
		t.Error("IsInstalled() = true after Remove()")
	}
	// Removing twice is fine.
	if err := st.Remove(full); err != nil {
		t.Errorf("Remove() on missing state = %v, want nil", err)
	}
}

func TestFindConflicting(t *testing.T) {
	s := newTestSettings(t)
	st := NewInstalledStore(s)

	for _, full := range []string{
		"mingw-w64-x86_64-gcc-13.2.0-6",
		"mingw-w64-x86_64-zlib-1.3-1",
	} {
		if err := st.Record(full, nil); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		conflict string
		want     []string
	}{
		{"full prefixed name", "mingw-w64-x86_64-gcc", []string{"mingw-w64-x86_64-gcc-13.2.0-6"}},
		{"bare name", "gcc", []string{"mingw-w64-x86_64-gcc-13.2.0-6"}},
		{"alias", "mingw-w64-x86_64-toolchain", []string{"mingw-w64-x86_64-gcc-13.2.0-6"}},
		{"no hit", "mingw-w64-x86_64-clang", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.FindConflicting(tt.conflict)
			if err != nil {
				t.Fatalf("FindConflicting(%q) failed: %v", tt.conflict, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindConflicting(%q) = %v, want %v", tt.conflict, got, tt.want)
			}
		})
	}
}
