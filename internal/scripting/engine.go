package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM hosting spawn-policy scripts.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory tree: policy/ first, then optional tuning/.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"policy", "tuning"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString executes inline Lua source, for tests and hot tuning.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// Close shuts the VM down.
func (e *Engine) Close() {
	e.vm.Close()
}

// SpawnPolicy is the batch shape a script computes for one difficulty
// level: how many obstacles of each kind to request from the
// generation pool and how fast movers should be.
type SpawnPolicy struct {
	SpawnRate   float64
	MovingSpeed float64
	FixedCount  int
	MovingCount int
}

// DefaultSpawnPolicy mirrors the store's linear difficulty formula, used
// whenever no script overrides it.
func DefaultSpawnPolicy(level int) SpawnPolicy {
	return SpawnPolicy{
		SpawnRate:   0.3 + float64(level)*0.1,
		MovingSpeed: 0.05 + float64(level)*0.01,
		FixedCount:  3,
		MovingCount: 2,
	}
}

// EvalSpawnPolicy calls the global Lua function spawn_policy(level). The
// second return is false when no script defines it; the Go fallback
// applies then. Script errors propagate to the caller.
func (e *Engine) EvalSpawnPolicy(level int) (SpawnPolicy, bool, error) {
	fn := e.vm.GetGlobal("spawn_policy")
	if fn == lua.LNil {
		return SpawnPolicy{}, false, nil
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(level)); err != nil {
		return SpawnPolicy{}, false, fmt.Errorf("spawn_policy(%d): %w", level, err)
	}

	ret := e.vm.Get(-1)
	e.vm.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return SpawnPolicy{}, false, fmt.Errorf("spawn_policy(%d): expected table, got %s", level, ret.Type())
	}

	fallback := DefaultSpawnPolicy(level)
	policy := SpawnPolicy{
		SpawnRate:   tableNumber(tbl, "spawn_rate", fallback.SpawnRate),
		MovingSpeed: tableNumber(tbl, "moving_speed", fallback.MovingSpeed),
		FixedCount:  int(tableNumber(tbl, "fixed_count", float64(fallback.FixedCount))),
		MovingCount: int(tableNumber(tbl, "moving_count", float64(fallback.MovingCount))),
	}
	return policy, true, nil
}

func tableNumber(tbl *lua.LTable, key string, fallback float64) float64 {
	if v, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		return float64(v)
	}
	return fallback
}
