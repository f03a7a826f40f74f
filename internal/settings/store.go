package settings

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	yamlv3 "gopkg.in/yaml.v3"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

// tempPattern names in-progress writes next to the settings file.
const tempPattern = ".autopush-tmp-*"

// ignoreContent keeps save artifacts out of the vault's commits. It is
// written as .gitignore beside the settings file unless one exists.
const ignoreContent = "# written by autopush\n*.bak\n" + tempPattern + "\n"

// Format is the on-disk encoding of the settings file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatFor picks the encoding from the file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Store reads and writes one settings file.
type Store struct {
	path   string
	format Format

	mu sync.Mutex
}

// NewStore returns a Store for path. The file does not need to exist.
func NewStore(path string) *Store {
	return &Store{path: path, format: FormatFor(path)}
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the file and merges it over Default. A missing file yields the
// defaults and no error.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := Default()

	content, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return loaded, nil
	}
	if err != nil {
		return loaded, autopushErrors.Wrapf(err, "read settings %s", s.path)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return loaded, nil
	}

	if err := s.decode(content, &loaded); err != nil {
		return Default(), autopushErrors.Wrapf(err, "parse settings %s", s.path)
	}
	return loaded, nil
}

// Save writes settings atomically. The previous file, if any, is kept as
// <path>.bak.
func (s *Store) Save(settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content, err := s.encode(settings)
	if err != nil {
		return autopushErrors.Wrap(err, "encode settings")
	}
	return s.writeAtomic(content)
}

func (s *Store) encode(settings Settings) ([]byte, error) {
	if s.format == FormatYAML {
		return yamlv3.Marshal(settings)
	}
	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(content, '\n'), nil
}

func (s *Store) decode(content []byte, into *Settings) error {
	if s.format == FormatYAML {
		return yamlv3.Unmarshal(content, into)
	}
	return json.Unmarshal(content, into)
}

func (s *Store) writeAtomic(content []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return autopushErrors.Wrap(err, "create settings directory")
	}

	if err := ensureIgnoreFile(dir); err != nil {
		return autopushErrors.Wrap(err, "write .gitignore")
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return autopushErrors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		return autopushErrors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		return autopushErrors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return autopushErrors.Wrap(err, "close temp file")
	}

	// Re-read so a bad encode never replaces a good file.
	written, err := os.ReadFile(tmpName)
	if err != nil {
		return autopushErrors.Wrap(err, "read temp file for validation")
	}
	var check Settings
	if err := s.decode(written, &check); err != nil {
		return autopushErrors.Wrap(err, "settings validation failed")
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := copyFile(s.path, s.path+".bak"); err != nil {
			return autopushErrors.Wrap(err, "create backup")
		}
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return autopushErrors.Wrap(err, "atomic rename")
	}
	return nil
}

func ensureIgnoreFile(dir string) error {
	path := filepath.Join(dir, ".gitignore")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if os.IsExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := f.WriteString(ignoreContent); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
