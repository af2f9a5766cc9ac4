package curriculum

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultCatalogYAML []byte

// DefaultCatalog returns the compiled-in catalog used when no record is stored.
func DefaultCatalog() ([]Course, error) {
	courses, err := parseCatalogYAML(defaultCatalogYAML)
	if err != nil {
		return nil, fmt.Errorf("parsing default catalog: %w", err)
	}
	return courses, nil
}

// LoadSeedDir reads every course YAML file under dir. Each file holds either a
// single course or a list of courses. Files without a course id are skipped.
// The returned catalog keeps directory walk order, which is lexical.
func LoadSeedDir(dir string) ([]Course, error) {
	var courses []Course
	seen := make(map[string]bool)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		parsed, err := parseCatalogYAML(data)
		if err != nil {
			slog.Warn("skipping invalid course YAML", "path", path, "error", err)
			return nil
		}

		for _, c := range parsed {
			if c.ID == "" {
				continue // Not a course file
			}
			if seen[c.ID] {
				slog.Warn("skipping duplicate course id", "path", path, "course_id", c.ID)
				continue
			}
			seen[c.ID] = true
			courses = append(courses, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading seed catalog: %w", err)
	}

	slog.Info("seed catalog loaded", "dir", dir, "courses", len(courses))
	return courses, nil
}

func parseCatalogYAML(data []byte) ([]Course, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	var courses []Course
	switch node.Content[0].Kind {
	case yaml.SequenceNode:
		if err := node.Content[0].Decode(&courses); err != nil {
			return nil, err
		}
	case yaml.MappingNode:
		var c Course
		if err := node.Content[0].Decode(&c); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	default:
		return nil, fmt.Errorf("expected a course or a list of courses")
	}

	for i := range courses {
		normalize(&courses[i])
	}
	if err := validateCatalog(courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// normalize gives YAML-sourced courses the same empty-collection shape as
// courses created at runtime.
func normalize(c *Course) {
	if c.Modules == nil {
		c.Modules = []Module{}
	}
	for i := range c.Modules {
		if c.Modules[i].Lessons == nil {
			c.Modules[i].Lessons = []Lesson{}
		}
	}
}
