package subaru

import "testing"

func TestParseFullName(t *testing.T) {
	tests := []struct {
		full    string
		want    pkgName
		wantErr bool
	}{
		{"mingw-w64-x86_64-gcc-13.2.0-5", pkgName{"mingw-w64-x86_64-gcc", "13.2.0", "5"}, false},
		{"foo-1.0-1", pkgName{"foo", "1.0", "1"}, false},
		{"mingw-w64-x86_64-ca-certificates-20240203-1", pkgName{"mingw-w64-x86_64-ca-certificates", "20240203", "1"}, false},
		{"foo", pkgName{}, true},
		{"foo-1", pkgName{}, true},
		{"-1.0-1", pkgName{}, true},
		{"foo-1.0-", pkgName{}, true},
		{"", pkgName{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.full, func(t *testing.T) {
			got, err := parseFullName(tt.full)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseFullName(%q) expected error, got %+v", tt.full, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFullName(%q) failed: %v", tt.full, err)
			}
			if got != tt.want {
				t.Errorf("parseFullName(%q) = %+v, want %+v", tt.full, got, tt.want)
			}
		})
	}
}

func TestParseFullNameRoundTrip(t *testing.T) {
	const full = "mingw-w64-x86_64-gcc-13.2.0-5"
	parsed, err := parseFullName(full)
	if err != nil {
		t.Fatalf("parseFullName(%q) failed: %v", full, err)
	}
	if parsed.String() != full {
		t.Errorf("String() = %q, want %q", parsed.String(), full)
	}
}

func TestParseDepSpec(t *testing.T) {
	tests := []struct {
		token   string
		want    DepSpec
		wantErr bool
	}{
		{"foo", DepSpec{Name: "foo"}, false},
		{"  foo  ", DepSpec{Name: "foo"}, false},
		{"foo>=1.2.3", DepSpec{Name: "foo", Op: ">=", Version: "1.2.3"}, false},
		{"foo<=2", DepSpec{Name: "foo", Op: "<=", Version: "2"}, false},
		{"foo=1.0", DepSpec{Name: "foo", Op: "=", Version: "1.0"}, false},
		{"foo<2", DepSpec{Name: "foo", Op: "<", Version: "2"}, false},
		{"foo>1", DepSpec{Name: "foo", Op: ">", Version: "1"}, false},
		{"", DepSpec{}, true},
		{"   ", DepSpec{}, true},
		{">=1.2", DepSpec{}, true},
		{"foo>=", DepSpec{}, true},
		{"=", DepSpec{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := parseDepSpec(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseDepSpec(%q) expected error, got %+v", tt.token, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDepSpec(%q) failed: %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("parseDepSpec(%q) = %+v, want %+v", tt.token, got, tt.want)
			}
		})
	}
}

// TestParseDepSpecOperatorOrder makes sure two-character operators are not
// mis-split into their one-character prefixes.
func TestParseDepSpecOperatorOrder(t *testing.T) {
	got, err := parseDepSpec("foo>=1.2")
	if err != nil {
		t.Fatalf("parseDepSpec failed: %v", err)
	}
	if got.Op != ">=" || got.Version != "1.2" {
		t.Errorf("parseDepSpec(\"foo>=1.2\") = %+v, want Op \">=\" Version \"1.2\"", got)
	}
}

func TestQueryPattern(t *testing.T) {
	const prefix = "mingw-w64-x86_64-"
	tests := []struct {
		query string
		key   string
		want  bool
	}{
		{"gcc", "gcc", true},
		{"gcc", "mingw-w64-x86_64-gcc", true},
		{"gcc", "gcc-13.2.0-5", true},
		{"gcc", "mingw-w64-x86_64-gcc-13.2.0-5", true},
		{"gcc", "mingw-w64-x86_64-gcc-git-1.0-1", true},
		// gcc-libs has three trailing segments relative to "gcc".
		{"gcc", "mingw-w64-x86_64-gcc-libs-13.2.0-5", false},
		{"gcc-libs", "mingw-w64-x86_64-gcc-libs-13.2.0-5", true},
		{"cc", "mingw-w64-x86_64-gcc-13.2.0-5", false},
		// Regex metacharacters in names must be treated literally.
		{"g++", "mingw-w64-x86_64-g++-1.0-1", true},
		{"g++", "mingw-w64-x86_64-gcc-1.0-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.query+"/"+tt.key, func(t *testing.T) {
			re := queryPattern(prefix, tt.query)
			if got := re.MatchString(tt.key); got != tt.want {
				t.Errorf("queryPattern(%q).MatchString(%q) = %v, want %v", tt.query, tt.key, got, tt.want)
			}
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.10", "1.9", 1},
		{"1.9", "1.10", -1},
		{"1.2", "1.2.1", -1},
		{"1.2.1", "1.2", 1},
		{"2.0", "2", 0},
		// Non-numeric segments fall back to lexicographic order.
		{"1.2a", "1.2b", -1},
	}

	for _, tt := range tests {
		if got := compareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("compareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		a, b pkgName
		want bool
	}{
		{pkgName{"p", "1.0", "2"}, pkgName{"p", "1.0", "1"}, true},
		{pkgName{"p", "1.1", "1"}, pkgName{"p", "1.0", "9"}, true},
		{pkgName{"p", "1.0", "1"}, pkgName{"p", "1.0", "1"}, false},
		{pkgName{"p", "0.9", "5"}, pkgName{"p", "1.0", "1"}, false},
	}

	for _, tt := range tests {
		if got := isNewer(tt.a, tt.b); got != tt.want {
			t.Errorf("isNewer(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
