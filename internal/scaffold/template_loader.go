package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
)

// TemplateLoader provides cascading template lookup:
// 1. Project templates (<root>/.iteria/templates/)
// 2. User templates (~/.config/iteria/templates/)
// 3. Embedded defaults
type TemplateLoader struct {
	projectTemplateDir string
	userTemplateDir    string
}

// NewTemplateLoader creates a loader for the project at root
func NewTemplateLoader(root string) *TemplateLoader {
	return &TemplateLoader{
		projectTemplateDir: findProjectTemplateDir(root),
		userTemplateDir:    findUserTemplateDir(),
	}
}

// Load returns the first template named name found in the cascade
func (l *TemplateLoader) Load(name string) ([]byte, error) {
	for _, dir := range []string{l.projectTemplateDir, l.userTemplateDir} {
		if dir == "" {
			continue
		}
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			return data, nil
		}
	}

	data, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	return data, nil
}

// HasCustomTemplate reports whether name is overridden outside the embedded set
func (l *TemplateLoader) HasCustomTemplate(name string) bool {
	for _, dir := range []string{l.projectTemplateDir, l.userTemplateDir} {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// CopyEmbeddedTemplate writes the embedded template name to destPath so it
// can be customised.
func CopyEmbeddedTemplate(name, destPath string) error {
	data, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return fmt.Errorf("failed to read embedded template %s: %w", name, err)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(destPath), err)
	}
	if err := os.WriteFile(destPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write template to %s: %w", destPath, err)
	}
	return nil
}

// findProjectTemplateDir walks up from root looking for .iteria/templates/
func findProjectTemplateDir(root string) string {
	dir, err := filepath.Abs(root)
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ".iteria", "templates")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func findUserTemplateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	dir := filepath.Join(home, ".config", "iteria", "templates")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}
