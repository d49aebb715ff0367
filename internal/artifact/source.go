package artifact

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/lendnet/orchestrator/internal/logger"
	"github.com/spf13/afero"
)

const extension = ".wasm"

// Source loads compiled contract bytecode by logical name from a directory of
// <name>.wasm files.
type Source struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// NewSource creates an artifact source rooted at dir.
func NewSource(fs afero.Fs, dir string) *Source {
	return &Source{
		fs:     fs,
		dir:    dir,
		logger: logger.Named("artifact_source"),
	}
}

// Path returns the file an artifact name resolves to.
func (s *Source) Path(name string) string {
	return filepath.Join(s.dir, name+extension)
}

// Load returns the bytecode of the named artifact.
func (s *Source) Load(name string) ([]byte, error) {
	path := s.Path(name)

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, &faults.ArtifactNotFoundError{Name: name, Path: path, Err: err}
	}
	if len(data) == 0 {
		return nil, &faults.ArtifactNotFoundError{Name: name, Path: path, Err: fmt.Errorf("file is empty")}
	}

	s.logger.
		With("artifact", name).
		With("size_bytes", len(data)).
		Debug("artifact loaded")

	return data, nil
}
