package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	fileNameRe   = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	nonSlugRunRe = regexp.MustCompile(`[^a-z0-9]+`)

	requiredAnnotations = []string{"-- +goose Up", "-- +goose Down"}
)

const migrationTemplate = `-- +goose Up
-- +goose StatementBegin
-- %[1]s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %[1]s
-- +goose StatementEnd
`

// slug lowercases name and collapses every run of non [a-z0-9] characters into one underscore.
func slug(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	return strings.Trim(nonSlugRunRe.ReplaceAllString(lowered, "_"), "_")
}

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<slug>.sql with empty goose
// Up/Down sections and returns its path. It never overwrites an existing file.
func CreateSQLMigration(dir, name string) (string, error) {
	switch {
	case dir == "":
		return "", errors.New("dir is required")
	case name == "":
		return "", errors.New("name is required")
	}

	s := slug(name)
	if s == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	path := filepath.Join(dir, time.Now().UTC().Format(versionLayout)+"_"+s+".sql")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("migration already exists: %s", path)
		}
		return "", fmt.Errorf("create %q: %w", path, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, migrationTemplate, s); err != nil {
		return "", fmt.Errorf("write %q: %w", path, err)
	}
	return path, nil
}

// ValidateDir checks every .sql file in dir for a well formed, unique version
// prefix and both goose annotations. An empty directory is valid.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	if info, err := os.Stat(dir); err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}
	return validateFS(os.DirFS(dir))
}

func validateFS(fsys fs.FS) error {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	versions := make(map[string]string, len(files))
	for _, file := range files {
		match := fileNameRe.FindStringSubmatch(file)
		if match == nil {
			return fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", file)
		}
		if other, dup := versions[match[1]]; dup {
			return fmt.Errorf("duplicate migration version %s in %q and %q", match[1], other, file)
		}
		versions[match[1]] = file

		body, err := fs.ReadFile(fsys, file)
		if err != nil {
			return fmt.Errorf("read %q: %w", file, err)
		}
		for _, annotation := range requiredAnnotations {
			if !strings.Contains(string(body), annotation) {
				return fmt.Errorf("migration %q missing %q", file, annotation)
			}
		}
	}
	return nil
}
