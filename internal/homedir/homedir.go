// Package homedir resolves the application's home/config directories,
// validates incoming program files against a core registry, and holds
// the "probable file" hand-off slot a platform file-association or
// drag-and-drop callback populates asynchronously. Ported from
// HomeDirManager (both the simple src/HostClass version and the richer
// include/services one) and Assistants/BasicHome.hpp.
package homedir

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/coornio/cubechip-go/internal/registry"
)

// Validator checks an incoming program against a core registry and
// returns the routed core name. Satisfied by (*registry.Registry).ValidateProgram.
type Validator func(p registry.Program) (registry.CoreName, bool)

// Service resolves application directories and tracks the currently
// loaded program file's identity (path, extension, SHA-1, cached bytes).
type Service struct {
	mu   sync.RWMutex
	home string
	dirs map[string]string

	validator Validator

	filePath string
	fileName string
	fileStem string
	fileExt  string
	fileSHA1 string
	fileData []byte

	probableFile atomic.Pointer[string]
}

// Initialize resolves the application's home directory: appName under the
// OS user-config directory, or a "portable" sibling of the executable
// when forcePortable is set, ported from BasicHome's construction path
// (setHomePath/isLocationWritable collapse to os.UserConfigDir plus a
// MkdirAll, since Go's standard library already resolves the
// platform-correct base directory).
func Initialize(appName string, forcePortable bool) (*Service, error) {
	var base string
	if forcePortable {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("homedir: resolve executable path: %w", err)
		}
		base = filepath.Join(filepath.Dir(exe), appName)
	} else {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("homedir: resolve user config dir: %w", err)
		}
		base = filepath.Join(configDir, appName)
	}

	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("homedir: create home dir %s: %w", base, err)
	}

	return &Service{home: base, dirs: make(map[string]string)}, nil
}

// Home returns the resolved application home directory.
func (s *Service) Home() string { return s.home }

// AddSystemDir creates (if needed) and returns the path to a named
// subdirectory of the home directory, e.g. "permRegs".
func (s *Service) AddSystemDir(sub string) (string, error) {
	path := filepath.Join(s.home, sub)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("homedir: create subdir %s: %w", path, err)
	}

	s.mu.Lock()
	s.dirs[sub] = path
	s.mu.Unlock()
	return path, nil
}

// SystemDir returns a previously created subdirectory's resolved path.
func (s *Service) SystemDir(sub string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	path, ok := s.dirs[sub]
	return path, ok
}

// SetValidator installs the core registry consulted by ValidateGameFile.
func (s *Service) SetValidator(v Validator) { s.validator = v }

// ValidateGameFile stats, hashes, and routes gamePath through the
// installed Validator, caching the file's bytes and identity on success.
// Ported from HomeDirManager::verifyFile/validateGameFile.
func (s *Service) ValidateGameFile(gamePath string) (registry.CoreName, bool, error) {
	info, err := os.Stat(gamePath)
	if err != nil {
		return "", false, fmt.Errorf("homedir: unable to locate path: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", false, fmt.Errorf("homedir: not a regular file: %s", gamePath)
	}
	if info.Size() == 0 {
		return "", false, fmt.Errorf("homedir: file is empty: %s", gamePath)
	}

	data, err := os.ReadFile(gamePath)
	if err != nil {
		return "", false, fmt.Errorf("homedir: unable to access file: %w", err)
	}

	sum := sha1.Sum(data)
	sha1Hex := hex.EncodeToString(sum[:])
	ext := filepath.Ext(gamePath)

	if s.validator == nil {
		return "", false, fmt.Errorf("homedir: no validator installed")
	}

	name, ok := s.validator(registry.Program{
		Size:      uint64(info.Size()),
		Extension: ext,
		SHA1:      sha1Hex,
	})
	if !ok {
		return "", false, nil
	}

	s.mu.Lock()
	s.filePath = gamePath
	s.fileName = filepath.Base(gamePath)
	s.fileStem = s.fileName[:len(s.fileName)-len(ext)]
	s.fileExt = ext
	s.fileSHA1 = sha1Hex
	s.fileData = data
	s.mu.Unlock()

	return name, true, nil
}

// ClearCachedFileData drops the cached game file bytes and identity,
// keeping directories and the validator intact.
func (s *Service) ClearCachedFileData() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filePath, s.fileName, s.fileStem, s.fileExt, s.fileSHA1 = "", "", "", "", ""
	s.fileData = nil
}

// FilePath, FileName, FileStem, FileExt, FileSHA1, and FileData expose the
// currently cached program file's identity.
func (s *Service) FilePath() string { s.mu.RLock(); defer s.mu.RUnlock(); return s.filePath }
func (s *Service) FileName() string { s.mu.RLock(); defer s.mu.RUnlock(); return s.fileName }
func (s *Service) FileStem() string { s.mu.RLock(); defer s.mu.RUnlock(); return s.fileStem }
func (s *Service) FileExt() string  { s.mu.RLock(); defer s.mu.RUnlock(); return s.fileExt }
func (s *Service) FileSHA1() string { s.mu.RLock(); defer s.mu.RUnlock(); return s.fileSHA1 }

func (s *Service) FileData() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fileData
}

// SetProbableFile publishes a file path a platform callback (drag-and-drop,
// file association) observed, for the UI thread to pick up next poll.
func (s *Service) SetProbableFile(path string) {
	p := path
	s.probableFile.Store(&p)
}

// GetProbableFile takes ownership of and clears the probable-file slot;
// a non-empty second return means the caller now owns path and must act
// on it, ported from getProbableFile's exchange(nullptr) semantics.
func (s *Service) GetProbableFile() (string, bool) {
	p := s.probableFile.Swap(nil)
	if p == nil {
		return "", false
	}
	return *p, true
}

// ReadSHA1File computes the SHA-1 hex digest of an arbitrary file, used by
// callers needing the digest without a full ValidateGameFile pass.
func ReadSHA1File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
