package topology

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/lendnet/orchestrator/internal/faults"
	"github.com/lendnet/orchestrator/internal/logger"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const filePrefix = "topology_"

// Store reads and writes topology files. Writes replace the destination in one
// rename, so a reader never observes a half-written file.
type Store struct {
	fs     afero.Fs
	logger *slog.Logger
}

func NewStore(fs afero.Fs) *Store {
	return &Store{
		fs:     fs,
		logger: logger.Named("topology_store"),
	}
}

// PathFor returns the topology file of network inside dir.
func PathFor(dir, network string) string {
	return filepath.Join(dir, filePrefix+network+".yaml")
}

// Persist validates t and writes it to destination, overwriting prior content.
func (s *Store) Persist(t Topology, destination string) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("refusing to persist invalid topology: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return err
	}

	dir := filepath.Dir(destination)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, filepath.Base(destination)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary topology file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write topology: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to write topology: %w", err)
	}

	if err := s.fs.Rename(tmpName, destination); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", destination, err)
	}

	s.logger.
		With("path", destination).
		With("network", t.Network).
		With("contracts", len(t.Contracts)).
		Info("topology persisted")

	return nil
}

// Encode writes t in the topology file format.
func Encode(w io.Writer, t Topology) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(t); err != nil {
		return fmt.Errorf("failed to encode topology: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to encode topology: %w", err)
	}

	return nil
}

// Load reads and validates the topology at source.
func (s *Store) Load(source string) (Topology, error) {
	data, err := afero.ReadFile(s.fs, source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Topology{}, &faults.TopologyNotFoundError{Path: source, Err: err}
		}
		return Topology{}, fmt.Errorf("failed to read topology %s: %w", source, err)
	}

	var t Topology
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&t); err != nil {
		return Topology{}, &faults.TopologyCorruptError{Path: source, Reason: "invalid yaml", Err: err}
	}

	if err := t.Validate(); err != nil {
		return Topology{}, &faults.TopologyCorruptError{Path: source, Reason: "validation failed", Err: err}
	}

	s.logger.With("path", source).Debug("topology loaded")

	return t, nil
}

// LoadNetwork loads the topology of network from dir and checks that the file
// really belongs to that network.
func (s *Store) LoadNetwork(dir, network string) (Topology, error) {
	path := PathFor(dir, network)

	t, err := s.Load(path)
	if err != nil {
		return Topology{}, err
	}
	if t.Network != network {
		return Topology{}, &faults.TopologyCorruptError{
			Path:   path,
			Reason: fmt.Sprintf("recorded for network %q, expected %q", t.Network, network),
		}
	}

	return t, nil
}
