package homedir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coornio/cubechip-go/internal/registry"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return &Service{home: t.TempDir(), dirs: make(map[string]string)}
}

func TestAddSystemDirCreatesAndTracksSubdir(t *testing.T) {
	s := newTestService(t)

	path, err := s.AddSystemDir("permRegs")
	if err != nil {
		t.Fatalf("AddSystemDir: %v", err)
	}
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		t.Fatalf("expected %s to be a created directory", path)
	}

	got, ok := s.SystemDir("permRegs")
	if !ok || got != path {
		t.Fatalf("SystemDir(permRegs) = %q, %v, want %q, true", got, ok, path)
	}
}

func TestValidateGameFileCachesIdentityOnSuccess(t *testing.T) {
	s := newTestService(t)
	s.SetValidator(func(p registry.Program) (registry.CoreName, bool) {
		if p.Extension == ".ch8" {
			return registry.CHIP8Modern, true
		}
		return "", false
	})

	path := filepath.Join(t.TempDir(), "game.ch8")
	if err := os.WriteFile(path, []byte{0x12, 0x34}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	name, ok, err := s.ValidateGameFile(path)
	if err != nil {
		t.Fatalf("ValidateGameFile: %v", err)
	}
	if !ok || name != registry.CHIP8Modern {
		t.Fatalf("ValidateGameFile = %v, %v, want CHIP8_MODERN, true", name, ok)
	}
	if s.FileName() != "game.ch8" || s.FileExt() != ".ch8" || s.FileStem() != "game" {
		t.Fatalf("cached identity mismatch: name=%q ext=%q stem=%q", s.FileName(), s.FileExt(), s.FileStem())
	}
	if len(s.FileSHA1()) != 40 {
		t.Fatalf("FileSHA1() len = %d, want 40 hex chars", len(s.FileSHA1()))
	}
}

func TestValidateGameFileRejectsEmptyFile(t *testing.T) {
	s := newTestService(t)
	s.SetValidator(func(registry.Program) (registry.CoreName, bool) { return registry.CHIP8Modern, true })

	path := filepath.Join(t.TempDir(), "empty.ch8")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, _, err := s.ValidateGameFile(path); err == nil {
		t.Fatalf("expected error for empty file")
	}
}

func TestValidateGameFileReturnsFalseWithoutErrorWhenRejectedByValidator(t *testing.T) {
	s := newTestService(t)
	s.SetValidator(func(registry.Program) (registry.CoreName, bool) { return "", false })

	path := filepath.Join(t.TempDir(), "unknown.xyz")
	if err := os.WriteFile(path, []byte{0x01}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, ok, err := s.ValidateGameFile(path)
	if err != nil {
		t.Fatalf("ValidateGameFile: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false when validator rejects the program")
	}
}

func TestClearCachedFileDataResetsIdentity(t *testing.T) {
	s := newTestService(t)
	s.SetValidator(func(registry.Program) (registry.CoreName, bool) { return registry.CHIP8Modern, true })

	path := filepath.Join(t.TempDir(), "game.ch8")
	os.WriteFile(path, []byte{0x01}, 0o644)
	s.ValidateGameFile(path)

	s.ClearCachedFileData()
	if s.FilePath() != "" || s.FileData() != nil {
		t.Fatalf("expected cleared identity, got path=%q data=%v", s.FilePath(), s.FileData())
	}
}

func TestProbableFileExchangeSemantics(t *testing.T) {
	s := newTestService(t)

	if _, ok := s.GetProbableFile(); ok {
		t.Fatalf("expected no probable file initially")
	}

	s.SetProbableFile("/tmp/dropped.ch8")
	path, ok := s.GetProbableFile()
	if !ok || path != "/tmp/dropped.ch8" {
		t.Fatalf("GetProbableFile = %q, %v, want /tmp/dropped.ch8, true", path, ok)
	}

	// exchange semantics: the slot is cleared by the first read
	if _, ok := s.GetProbableFile(); ok {
		t.Fatalf("expected probable file slot cleared after first read")
	}
}
