package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassifyName(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		ok   bool
	}{
		{"persistence_run1.json", KindSequences, true},
		{"persistence.json", KindSequences, true},
		{"cross_domain_run2.json", KindSequences, true},
		{"persistence_stats.json", KindSummary, true},
		{"cross_domain_run2_stats.json", KindSummary, true},
		{"summary_stats.json", KindSummary, true},
		{"notes.txt", 0, false},
		{"persistence_run1.jsonl", 0, false},
		{"random.json", 0, false},
	}
	for _, tt := range tests {
		kind, ok := ClassifyName(tt.name)
		if ok != tt.ok {
			t.Errorf("ClassifyName(%q) ok = %t, want %t", tt.name, ok, tt.ok)
			continue
		}
		if ok && kind != tt.kind {
			t.Errorf("ClassifyName(%q) = %s, want %s", tt.name, kind, tt.kind)
		}
	}
}

func TestScan_ClassifiesAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "persistence_b.json", "{}")
	writeFile(t, dir, "persistence_a.json", "{}")
	writeFile(t, dir, "cross_domain_stats.json", "{}")
	writeFile(t, dir, "ignored.txt", "nope")

	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "persistence_c.json", "{}")

	files, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("Scan() found %d files, want 4: %v", len(files), files)
	}
	for i := 1; i < len(files); i++ {
		if files[i-1].Path > files[i].Path {
			t.Errorf("files not sorted: %s before %s", files[i-1].Path, files[i].Path)
		}
	}
	byName := make(map[string]File)
	for _, f := range files {
		byName[f.Name] = f
	}
	if byName["cross_domain_stats.json"].Kind != KindSummary {
		t.Error("cross_domain_stats.json should classify as summary")
	}
	if byName["cross_domain_stats.json"].Domain != "cross_domain" {
		t.Errorf("domain = %q, want cross_domain", byName["cross_domain_stats.json"].Domain)
	}
	if byName["persistence_a.json"].Kind != KindSequences {
		t.Error("persistence_a.json should classify as sequences")
	}
}

func TestScan_EmptyDirIsNotAnError(t *testing.T) {
	files, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan(empty) error = %v, want nil", err)
	}
	if len(files) != 0 {
		t.Errorf("Scan(empty) = %v, want no files", files)
	}
}

func TestScan_MissingDir(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("Scan(missing) error = nil, want error")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
