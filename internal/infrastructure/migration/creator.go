package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const (
	upSuffix      = ".up.sql"
	downSuffix    = ".down.sql"
	versionDigits = 6
)

var fileTemplate = template.Must(template.New("migration").Parse(`-- {{.Name}}{{if .Down}} (rollback){{end}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))

// MigrationFile describes a generated up/down pair.
type MigrationFile struct {
	Version     string
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes the next sequentially numbered migration pair into dir.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(dir)
	if err != nil {
		return nil, err
	}
	next := 1
	if n := len(existing); n > 0 {
		last, _ := parseVersion(existing[n-1])
		next = last + 1
	}

	version := fmt.Sprintf("%0*d", versionDigits, next)
	base := filepath.Join(dir, version+"_"+slug)
	mf := &MigrationFile{
		Version:     version,
		Name:        name,
		Description: description,
		Timestamp:   time.Now().Format(time.RFC3339),
		UpPath:      base + upSuffix,
		DownPath:    base + downSuffix,
	}

	if err := writeTemplate(mf.UpPath, mf, false); err != nil {
		return nil, err
	}
	if err := writeTemplate(mf.DownPath, mf, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeTemplate(path string, mf *MigrationFile, down bool) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	data := struct {
		*MigrationFile
		Down bool
	}{mf, down}
	if err := fileTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}

// sanitizeName lowercases name and collapses separators into single underscores.
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

func parseVersion(base string) (int, bool) {
	prefix, _, _ := strings.Cut(base, "_")
	n, err := strconv.Atoi(prefix)
	return n, err == nil
}

// ListMigrations returns the base names of the up migrations in dir, in version order.
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), upSuffix); ok {
			if _, numbered := parseVersion(base); numbered {
				names = append(names, base)
			}
		}
	}
	sort.Slice(names, func(i, j int) bool {
		a, _ := parseVersion(names[i])
		b, _ := parseVersion(names[j])
		return a < b
	})
	return names, nil
}
