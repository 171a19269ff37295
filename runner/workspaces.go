package runner

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the pipeline definition looked up inside a workspace.
const ConfigFileName = "verigo.yml"

// Workspace is a registered working tree to verify. Every is an optional
// re-verification interval ("30m", "2h") used by the serve-mode scheduler.
type Workspace struct {
	Name  string `yaml:"name" json:"name"`
	Path  string `yaml:"path" json:"path"`
	Every string `yaml:"every,omitempty" json:"every,omitempty"`
}

// WorkspaceSet holds all registered workspaces.
type WorkspaceSet struct {
	Workspaces []Workspace `yaml:"workspaces" json:"workspaces"`
}

// LoadWorkspaces loads the workspace registry from a YAML file.
func LoadWorkspaces(path string) (*WorkspaceSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspaces config: %w", err)
	}
	var set WorkspaceSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse workspaces config: %w", err)
	}
	return &set, nil
}

// Get returns a workspace by name.
func (ws *WorkspaceSet) Get(name string) (*Workspace, error) {
	for i := range ws.Workspaces {
		if ws.Workspaces[i].Name == name {
			return &ws.Workspaces[i], nil
		}
	}
	return nil, fmt.Errorf("workspace %q not found", name)
}

// Dir returns the workspace's absolute directory, resolving a relative
// path against baseDir.
func (w *Workspace) Dir(baseDir string) string {
	if filepath.IsAbs(w.Path) {
		return w.Path
	}
	return filepath.Join(baseDir, w.Path)
}

// ConfigPath returns the path of the workspace's pipeline definition. The
// file may be absent, in which case the built-in default pipeline applies.
func (w *Workspace) ConfigPath(baseDir string) string {
	return filepath.Join(w.Dir(baseDir), ConfigFileName)
}

// Validate checks that the workspace points at an existing directory.
func (w *Workspace) Validate(baseDir string) error {
	info, err := os.Stat(w.Dir(baseDir))
	if err != nil {
		return fmt.Errorf("workspace path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace path is not a directory")
	}
	return nil
}
