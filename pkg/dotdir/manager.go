// Package dotdir manages the .keepsake/ and ~/.keepsake directories.
//
// The directory holds config.toml, credentials.toml and, unless configured
// elsewhere, the per-user profile, episodic and local memory files.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName = ".keepsake"

	// ProfilesDir holds {user}_profile.json files.
	ProfilesDir = "profiles"

	// EpisodesDir holds {user}_episodic.json files.
	EpisodesDir = "episodes"

	// MemoriesDir holds the local fallback semantic store.
	MemoriesDir = "memories"
)

// Origin names the rule that picked a directory.
type Origin string

const (
	OriginOverride Origin = "override"
	OriginLocal    Origin = "local"
	OriginHome     Origin = "home"
)

// Location is a resolved, existing keepsake directory.
type Location struct {
	Path   string
	Origin Origin
}

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Locate resolves the keepsake directory and creates it when missing.
// Precedence:
//  1. overrideDir
//  2. ./.keepsake/ in the working directory
//  3. ~/.keepsake/
func (m *Manager) Locate(overrideDir string) (Location, error) {
	loc, err := m.candidate(overrideDir)
	if err != nil {
		return Location{}, err
	}

	if err := os.MkdirAll(loc.Path, 0o755); err != nil {
		return Location{}, fmt.Errorf("creating keepsake directory %s: %w", loc.Path, err)
	}

	abs, err := filepath.Abs(loc.Path)
	if err != nil {
		return Location{}, fmt.Errorf("resolving %s: %w", loc.Path, err)
	}
	loc.Path = abs
	return loc, nil
}

// Target is Locate returning only the path.
func (m *Manager) Target(overrideDir string) (string, error) {
	loc, err := m.Locate(overrideDir)
	return loc.Path, err
}

func (m *Manager) candidate(overrideDir string) (Location, error) {
	if overrideDir != "" {
		return Location{Path: overrideDir, Origin: OriginOverride}, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, dirName)
		if info, err := os.Stat(local); err == nil && info.IsDir() {
			return Location{Path: local, Origin: OriginLocal}, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Location{}, fmt.Errorf("getting home directory: %w", err)
	}
	return Location{Path: filepath.Join(home, dirName), Origin: OriginHome}, nil
}
