package helper

import (
	"os"
	"path/filepath"
	"testing"
)

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("torque table"))
	b := ContentHash([]byte("torque table"))
	c := ContentHash([]byte("torque table "))

	if a != b {
		t.Errorf("Expected identical hashes, got %s and %s", a, b)
	}
	if a == c {
		t.Errorf("Expected different hashes for different content")
	}
	if len(a) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(a))
	}
}

func TestGenerateUUID(t *testing.T) {
	a, err := GenerateUUID()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, _ := GenerateUUID()
	if a == b {
		t.Errorf("Expected distinct ids, got %s twice", a)
	}
}

func TestCreateFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports", "run")
	if err := CreateFolder(dir); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("Expected folder %s to exist", dir)
	}
}
