package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/snakego/server/internal/obstacle"
)

// LevelPreset holds hand-tuned spawn settings for one difficulty level,
// loaded from YAML. Levels without a preset fall back to the store's
// linear difficulty formula.
type LevelPreset struct {
	Level             int      `yaml:"level"`
	SpawnRate         float64  `yaml:"spawn_rate"`   // obstacles per second
	MovingSpeed       float64  `yaml:"moving_speed"` // cells per movement tick
	MinLifetime       float64  `yaml:"min_lifetime"` // seconds
	MaxLifetime       float64  `yaml:"max_lifetime"` // seconds
	FixedRatio        float64  `yaml:"fixed_ratio"`  // share of fixed obstacles in a batch
	PreferredPatterns []string `yaml:"preferred_patterns"`
}

// Patterns resolves the preset's pattern names, dropping unknown entries.
func (p LevelPreset) Patterns() []obstacle.Pattern {
	out := make([]obstacle.Pattern, 0, len(p.PreferredPatterns))
	for _, name := range p.PreferredPatterns {
		if pat, ok := obstacle.ParsePattern(name); ok {
			out = append(out, pat)
		}
	}
	return out
}

type levelsFile struct {
	Levels []LevelPreset `yaml:"levels"`
}

// LevelTable holds all difficulty presets indexed by level.
type LevelTable struct {
	byLevel map[int]LevelPreset
	maxLvl  int
}

// LoadLevels reads the preset table from a YAML file.
func LoadLevels(path string) (*LevelTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read levels %s: %w", path, err)
	}
	var f levelsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse levels %s: %w", path, err)
	}
	t := &LevelTable{byLevel: make(map[int]LevelPreset, len(f.Levels))}
	for _, lvl := range f.Levels {
		t.byLevel[lvl.Level] = lvl
		if lvl.Level > t.maxLvl {
			t.maxLvl = lvl.Level
		}
	}
	return t, nil
}

// Get returns the preset for a level. Levels past the table's end reuse
// the highest defined preset; false means no preset applies at all.
func (t *LevelTable) Get(level int) (LevelPreset, bool) {
	if p, ok := t.byLevel[level]; ok {
		return p, true
	}
	if level > t.maxLvl && t.maxLvl > 0 {
		return t.byLevel[t.maxLvl], true
	}
	return LevelPreset{}, false
}

// Count returns the number of presets loaded.
func (t *LevelTable) Count() int { return len(t.byLevel) }

// Levels lists the defined level numbers in ascending order.
func (t *LevelTable) Levels() []int {
	out := make([]int, 0, len(t.byLevel))
	for lvl := range t.byLevel {
		out = append(out, lvl)
	}
	sort.Ints(out)
	return out
}
