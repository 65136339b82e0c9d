package pathfilter

import "testing"

func TestFilter_Match(t *testing.T) {
	f, err := New(nil, []string{"*/test/*", "*/docs/*", "*.md", "vendor/**"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		path string
		want bool
	}{
		{path: "src/main/App.java", want: true},
		{path: "src/test/AppTest.java", want: false},
		{path: "test/helper.py", want: false},
		{path: "a/b/test/c/d.go", want: false},
		{path: "docs/index.rst", want: false},
		{path: "README.md", want: false},
		{path: "pkg/notes.md", want: false},
		{path: "vendor/x/y.go", want: false},
		{path: "latest/file.go", want: true},
		{path: `win\style\path.go`, want: true},
		{path: `src\test\Win.java`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := f.Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestFilter_Include(t *testing.T) {
	f, err := New([]string{"src/**/*.go"}, []string{"**/*_gen.go"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !f.Match("src/a/b.go") {
		t.Error("expected src/a/b.go to be included")
	}
	if f.Match("cmd/main.go") {
		t.Error("expected cmd/main.go to be rejected by include list")
	}
	if f.Match("src/a/model_gen.go") {
		t.Error("expected generated file to be excluded")
	}
}

func TestFilter_InvalidPatternsReturnError(t *testing.T) {
	t.Run("invalid exclude pattern", func(t *testing.T) {
		if _, err := New(nil, []string{"["}); err == nil {
			t.Fatal("expected error for invalid exclude glob, got nil")
		}
	})

	t.Run("invalid include pattern", func(t *testing.T) {
		if _, err := New([]string{"["}, nil); err == nil {
			t.Fatal("expected error for invalid include glob, got nil")
		}
	})
}

func TestFilter_NilAcceptsAll(t *testing.T) {
	var f *Filter
	if !f.Match("anything/at/all.go") {
		t.Error("nil filter should accept every path")
	}
	if f.Excluded("anything") {
		t.Error("nil filter should exclude nothing")
	}
}

func TestFilter_BlankPatternsIgnored(t *testing.T) {
	f, err := New([]string{" "}, []string{""})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !f.Match("a.go") {
		t.Error("blank patterns should not restrict matching")
	}
}
