package definitions

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kadirbelkuyu/dyntables/internal/domain"
	"gopkg.in/yaml.v3"
)

const defaultDir = "definitions"

var fileNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9-_]`)

// Entry is a table definition file on disk.
type Entry struct {
	Name     string
	Path     string
	Table    string
	Fields   int
	Modified time.Time
}

// Manager reads and writes table definition files under a directory.
type Manager struct {
	dir string
}

func NewManager(dir string) *Manager {
	if strings.TrimSpace(dir) == "" {
		dir = defaultDir
	}
	return &Manager{dir: dir}
}

func (m *Manager) Directory() string {
	return m.dir
}

// List returns every readable definition in the directory.
func (m *Manager) List() ([]Entry, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Entry
	for _, entry := range entries {
		if entry.IsDir() || !hasYAMLExt(entry.Name()) {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		def, err := LoadFile(path)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		out = append(out, Entry{
			Name:     strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			Path:     path,
			Table:    def.Name,
			Fields:   len(def.Columns),
			Modified: modifiedTime(info, err),
		})
	}

	return out, nil
}

func modifiedTime(info os.FileInfo, err error) time.Time {
	if err != nil || info == nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Save writes def under alias, defaulting the alias to the table name.
func (m *Manager) Save(alias string, def domain.CreateTableRequest) (Entry, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return Entry{}, err
	}

	base := strings.TrimSpace(alias)
	if base == "" {
		base = def.Name
	}
	base = ensureYAMLExt(sanitizeName(base))

	data, err := yaml.Marshal(def)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode definition: %w", err)
	}

	path := filepath.Join(m.dir, base)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Entry{}, err
	}

	return Entry{
		Name:     strings.TrimSuffix(base, filepath.Ext(base)),
		Path:     path,
		Table:    def.Name,
		Fields:   len(def.Columns),
		Modified: time.Now(),
	}, nil
}

// Load reads a definition by alias or file path.
func (m *Manager) Load(alias string) (*domain.CreateTableRequest, error) {
	path, err := m.resolve(alias)
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

func (m *Manager) Delete(alias string) error {
	path, err := m.resolve(alias)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("definition not found: %s", alias)
	}

	return os.Remove(path)
}

func (m *Manager) resolve(alias string) (string, error) {
	if strings.TrimSpace(alias) == "" {
		return "", fmt.Errorf("definition alias cannot be empty")
	}
	if strings.ContainsRune(alias, os.PathSeparator) {
		return alias, nil
	}
	return filepath.Join(m.dir, ensureYAMLExt(alias)), nil
}

// LoadFile parses a YAML (or JSON) table definition.
func LoadFile(path string) (*domain.CreateTableRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	var def domain.CreateTableRequest
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse definition: %w", err)
	}
	return &def, nil
}

// FromTable converts a catalog table back into a create-table request.
func FromTable(table *domain.TableDef) domain.CreateTableRequest {
	def := domain.CreateTableRequest{Name: table.Name}
	for _, col := range table.Columns {
		nullable, blankable := col.Nullable, col.Blankable
		def.Columns = append(def.Columns, domain.ColumnRequest{
			Name:      col.Name,
			Type:      string(col.Type),
			Nullable:  &nullable,
			Blankable: &blankable,
		})
	}
	return def
}

func hasYAMLExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml" || ext == ".json"
}

func ensureYAMLExt(name string) string {
	if hasYAMLExt(name) {
		return name
	}
	return name + ".yaml"
}

func sanitizeName(input string) string {
	cleaned := fileNameSanitizer.ReplaceAllString(input, "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "definition"
	}
	return cleaned
}
