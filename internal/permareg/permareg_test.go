package permareg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetPermaRegsZeroFillsOnMissingFile(t *testing.T) {
	s := New(t.TempDir())
	dst := [8]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

	if err := s.GetPermaRegs("deadbeef", 8, dst[:]); err != nil {
		t.Fatalf("GetPermaRegs: %v", err)
	}
	for i, b := range dst {
		if b != 0 {
			t.Fatalf("dst[%d] = %#x, want 0 on missing file", i, b)
		}
	}
}

func TestSetThenGetPermaRegsRoundTrips(t *testing.T) {
	s := New(t.TempDir())
	src := [4]byte{1, 2, 3, 4}

	if err := s.SetPermaRegs("abc123", 4, src[:]); err != nil {
		t.Fatalf("SetPermaRegs: %v", err)
	}

	var dst [4]byte
	if err := s.GetPermaRegs("abc123", 4, dst[:]); err != nil {
		t.Fatalf("GetPermaRegs: %v", err)
	}
	if dst != src {
		t.Fatalf("GetPermaRegs = %v, want %v", dst, src)
	}
}

func TestSetPermaRegsCreatesZeroPaddedSixteenByteFile(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	src := [2]byte{0xAA, 0xBB}

	if err := s.SetPermaRegs("shortwrite", 2, src[:]); err != nil {
		t.Fatalf("SetPermaRegs: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "shortwrite"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(raw) != fileSize {
		t.Fatalf("len(raw) = %d, want %d", len(raw), fileSize)
	}
	if raw[0] != 0xAA || raw[1] != 0xBB {
		t.Fatalf("raw[0:2] = %v, want [0xAA 0xBB]", raw[0:2])
	}
	for i := 2; i < fileSize; i++ {
		if raw[i] != 0 {
			t.Fatalf("raw[%d] = %#x, want 0 (zero-padded)", i, raw[i])
		}
	}
}

func TestSetPermaRegsPreservesTrailingBytesOfExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preexisting")
	original := make([]byte, fileSize)
	for i := range original {
		original[i] = byte(i + 1)
	}
	if err := os.WriteFile(path, original, 0o644); err != nil {
		t.Fatalf("seed WriteFile: %v", err)
	}

	s := New(dir)
	src := [2]byte{0x00, 0x00}
	if err := s.SetPermaRegs("preexisting", 2, src[:]); err != nil {
		t.Fatalf("SetPermaRegs: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if raw[0] != 0 || raw[1] != 0 {
		t.Fatalf("raw[0:2] = %v, want overwritten to zero", raw[0:2])
	}
	for i := 2; i < fileSize; i++ {
		if raw[i] != original[i] {
			t.Fatalf("raw[%d] = %#x, want preserved %#x", i, raw[i], original[i])
		}
	}
}

func TestGetPermaRegsRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "adir"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	s := New(dir)
	var dst [4]byte
	if err := s.GetPermaRegs("adir", 4, dst[:]); err == nil {
		t.Fatalf("expected error for a directory masquerading as a perma-register file")
	}
}
