package rules

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sgerhart/aegisrange/internal/model"
)

// Loader reads starter rule packs from a directory of YAML files. Packs are
// pre-authored detection rules seeded into the session at boot; invalid
// entries are skipped with a warning, never fatal.
type Loader struct {
	rulesDir string
	engine   *Engine
	logger   *slog.Logger
}

// rulePack is the on-disk shape of one pack file.
type rulePack struct {
	Name  string `yaml:"name"`
	Rules []struct {
		ConditionType string `yaml:"condition_type"`
		Value         string `yaml:"value"`
		Combinator    string `yaml:"combinator"`
	} `yaml:"rules"`
}

// NewLoader creates a loader over rulesDir.
func NewLoader(rulesDir string, engine *Engine, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{rulesDir: rulesDir, engine: engine, logger: logger}
}

// LoadPacks parses every pack file and returns the validated rules in
// filename order. A missing directory yields no rules and no error.
func (l *Loader) LoadPacks() ([]model.Rule, error) {
	files, err := l.packFiles()
	if err != nil {
		return nil, err
	}

	var loaded []model.Rule
	for _, file := range files {
		rules, err := l.loadPackFile(file)
		if err != nil {
			l.logger.Warn("Failed to load rule pack", "file", file, "error", err)
			continue
		}
		loaded = append(loaded, rules...)
	}

	l.logger.Info("Rule packs loaded", "rules_dir", l.rulesDir, "total_rules", len(loaded))
	return loaded, nil
}

// packFiles lists the YAML files in the rules directory, sorted by name.
func (l *Loader) packFiles() ([]string, error) {
	entries, err := os.ReadDir(l.rulesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rules directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, filepath.Join(l.rulesDir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// loadPackFile parses one pack and validates each entry through the engine.
func (l *Loader) loadPackFile(path string) ([]model.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule pack: %w", err)
	}

	var pack rulePack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse rule pack: %w", err)
	}

	var rules []model.Rule
	for i, entry := range pack.Rules {
		rule, err := l.engine.Validate(Submission{
			ConditionType: entry.ConditionType,
			Value:         entry.Value,
			Combinator:    entry.Combinator,
		})
		if err != nil {
			l.logger.Warn("Invalid rule skipped",
				"file", path,
				"index", i,
				"condition_type", entry.ConditionType,
				"error", err)
			continue
		}
		rules = append(rules, rule)
	}

	return rules, nil
}
