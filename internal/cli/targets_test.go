package cli

import (
	"os"
	"path/filepath"
	"testing"

	"zprobe/internal/coreiface"
)

func writeTargetsFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "targets.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadTargetsFile_DefaultPortAndComments(t *testing.T) {
	path := writeTargetsFile(t, "# comment\n\n198.51.100.1\n198.51.100.2:5353\n")

	targets, err := LoadTargetsFile(path, 53)
	if err != nil {
		t.Fatalf("LoadTargetsFile: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].Port != 53 {
		t.Fatalf("expected default port 53, got %d", targets[0].Port)
	}
	if targets[1].Port != 5353 {
		t.Fatalf("expected explicit port 5353, got %d", targets[1].Port)
	}
	if targets[0].IP.String() != "198.51.100.1" {
		t.Fatalf("unexpected address %s", targets[0].IP)
	}
}

func TestLoadTargetsFile_InvalidAddress(t *testing.T) {
	path := writeTargetsFile(t, "not-an-ip\n")
	if _, err := LoadTargetsFile(path, 53); err == nil {
		t.Fatalf("expected an error for an invalid address line")
	}
}

func TestLoadTargetsFile_InvalidPort(t *testing.T) {
	path := writeTargetsFile(t, "198.51.100.1:notaport\n")
	if _, err := LoadTargetsFile(path, 53); err == nil {
		t.Fatalf("expected an error for an invalid port")
	}
}

func TestLoadTargetsFile_MissingFile(t *testing.T) {
	if _, err := LoadTargetsFile(filepath.Join(t.TempDir(), "nope.txt"), 53); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestStride_SplitsEvenly(t *testing.T) {
	all := make([]coreiface.Target, 6)
	for i := range all {
		all[i] = coreiface.Target{Port: uint16(i)}
	}

	shard0 := Stride(all, 0, 2)
	shard1 := Stride(all, 1, 2)
	if len(shard0) != 3 || len(shard1) != 3 {
		t.Fatalf("expected an even 3/3 split, got %d/%d", len(shard0), len(shard1))
	}
	for _, tgt := range shard0 {
		if tgt.Port%2 != 0 {
			t.Fatalf("shard 0 got an odd-indexed target: port %d", tgt.Port)
		}
	}
}

func TestSliceIterator_ExhaustsThenReturnsFalse(t *testing.T) {
	all := []coreiface.Target{{Port: 1}, {Port: 2}, {Port: 3}, {Port: 4}}
	it := NewSliceIterator(all, 0, 2)

	first, ok := it.NextTarget()
	if !ok || first.Port != 1 {
		t.Fatalf("expected first target port=1, got %+v ok=%v", first, ok)
	}
	second, ok := it.NextTarget()
	if !ok || second.Port != 3 {
		t.Fatalf("expected second target port=3, got %+v ok=%v", second, ok)
	}
	if _, ok := it.NextTarget(); ok {
		t.Fatalf("expected the shard's slice to be exhausted")
	}
}
