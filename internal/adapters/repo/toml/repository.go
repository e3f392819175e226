package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/ports"
)

const (
	karmaFileMode   = 0o600
	karmaDirMode    = 0o700
	tempFilePattern = ".karma-*.toml.tmp"
)

// Repository keeps every karma record in one TOML file that is rewritten
// atomically on each save. Suited to small channels; use the SQLite
// backend for anything busy.
type Repository struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.KarmaRepository = (*Repository)(nil)

func NewRepository(path string) (*Repository, error) {
	if path == "" {
		return nil, errors.New("karma file path is empty")
	}
	path, err := normalizePath(path)
	if err != nil {
		return nil, err
	}

	return &Repository{path: path, mu: lockForPath(path)}, nil
}

func (r *Repository) Path() string {
	return r.path
}

// Init creates an empty karma file if none exists yet.
func (r *Repository) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Save(ctx context.Context, record domain.KarmaRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(record)
	updated := false
	for i := range file.Subjects {
		if file.Subjects[i].Name == encoded.Name {
			file.Subjects[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Subjects = append(file.Subjects, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Get(ctx context.Context, subject domain.Subject) (domain.KarmaRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.KarmaRecord{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.KarmaRecord{}, err
	}

	for _, entry := range file.Subjects {
		if entry.Name == string(subject) {
			return fromSchema(entry), nil
		}
	}

	return domain.KarmaRecord{}, domain.ErrSubjectNotFound
}

func (r *Repository) List(ctx context.Context, order domain.RankingOrder, limit int) ([]domain.KarmaRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	records := make([]domain.KarmaRecord, 0, len(file.Subjects))
	for _, entry := range file.Subjects {
		records = append(records, fromSchema(entry))
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score == records[j].Score {
			return records[i].Subject < records[j].Subject
		}
		if order == domain.RankingBottom {
			return records[i].Score < records[j].Score
		}
		return records[i].Score > records[j].Score
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read karma file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode karma file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve karma file path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

// lockForPath shares one lock between every Repository opened on the same
// file in this process.
func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.path), karmaDirMode); err != nil {
		return fmt.Errorf("create karma directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode karma file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp karma file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp karma file: %w", err)
	}

	if err := tempFile.Chmod(karmaFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp karma file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("sync temp karma file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp karma file: %w", err)
	}

	if err := os.Rename(tempName, r.path); err != nil {
		return fmt.Errorf("replace karma file: %w", err)
	}

	cleanup = false
	return nil
}

func toSchema(record domain.KarmaRecord) subjectSchema {
	return subjectSchema{
		Name:      string(record.Subject),
		Score:     record.Score,
		UpdatedAt: formatTime(record.UpdatedAt),
	}
}

func fromSchema(entry subjectSchema) domain.KarmaRecord {
	return domain.KarmaRecord{
		Subject:   domain.Subject(entry.Name),
		Score:     entry.Score,
		UpdatedAt: parseTime(entry.UpdatedAt),
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
