package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Subjects []subjectSchema `toml:"subjects"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported karma schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type subjectSchema struct {
	Name      string `toml:"name"`
	Score     int64  `toml:"score"`
	UpdatedAt string `toml:"updated_at,omitempty"`
}
