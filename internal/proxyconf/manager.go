package proxyconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/nutcracker-tools/beholder/internal/models"
)

var ErrInvalidConfig = errors.New("invalid twemproxy config")

// Manager is the only writer of the twemproxy config file. The file is
// re-read from disk before every mutation, never cached across events.
type Manager struct {
	path string
	log  zerolog.Logger
}

func NewManager(path string, logger zerolog.Logger) *Manager {
	return &Manager{
		path: path,
		log:  logger.With().Str("component", "proxyconf").Logger(),
	}
}

// Load reads and validates the current pool definitions. Duplicate pool
// names fail here, which surfaces ambiguous configs at startup rather than
// at event time.
func (m *Manager) Load() (Pools, error) {
	return loadPools(m.path)
}

// ApplySwitch maps the event onto the configured pools and commits the
// rewritten config atomically. It reports whether the file changed; the
// restart action must only run when it did.
func (m *Manager) ApplySwitch(ev models.SwitchMaster) (bool, error) {
	pools, err := m.Load()
	if err != nil {
		return false, err
	}
	changed, err := ResolveSwitch(pools, ev)
	if err != nil || !changed {
		return false, err
	}
	if err := m.commit(pools); err != nil {
		return false, err
	}
	m.log.Info().Str("pool", ev.Pool).Msgf("rewrote %s: %s -> %s", m.path, ev.Old, ev.New)
	return true, nil
}

// commit serializes the pools next to the target file and renames over it,
// so concurrent readers never observe a partial config. The temp file is
// revalidated by re-parsing before it becomes visible, and removed on every
// failure path.
func (m *Manager) commit(pools Pools) (err error) {
	data, err := yaml.Marshal(pools)
	if err != nil {
		return fmt.Errorf("failed to serialize twemproxy config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp config %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp config %s: %w", tmpPath, err)
	}

	if info, statErr := os.Stat(m.path); statErr == nil {
		if err = os.Chmod(tmpPath, info.Mode()); err != nil {
			return fmt.Errorf("failed to set mode on temp config %s: %w", tmpPath, err)
		}
	}

	if _, err = loadPools(tmpPath); err != nil {
		return fmt.Errorf("refusing to commit: %w", err)
	}

	if err = os.Rename(tmpPath, m.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", m.path, err)
	}
	return nil
}

func loadPools(path string) (Pools, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read twemproxy config %s: %w", path, err)
	}
	pools := Pools{}
	if err := yaml.Unmarshal(data, &pools); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, path, err)
	}
	if len(pools) == 0 {
		return nil, fmt.Errorf("%w: %s: no pools defined", ErrInvalidConfig, path)
	}
	return pools, nil
}
