package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEvalSpawnPolicyFromScript(t *testing.T) {
	e := newTestEngine(t)
	err := e.LoadString(`
function spawn_policy(level)
    return {
        spawn_rate = 0.3 + level * 0.1,
        moving_speed = 0.05 + level * 0.01,
        fixed_count = level + 2,
        moving_count = level,
    }
end
`)
	if err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	policy, ok, err := e.EvalSpawnPolicy(3)
	if err != nil {
		t.Fatalf("EvalSpawnPolicy: %v", err)
	}
	if !ok {
		t.Fatalf("expected the script policy to apply")
	}
	if policy.FixedCount != 5 || policy.MovingCount != 3 {
		t.Fatalf("counts = %d/%d, want 5/3", policy.FixedCount, policy.MovingCount)
	}
	if policy.SpawnRate < 0.59 || policy.SpawnRate > 0.61 {
		t.Fatalf("spawn rate = %v, want ~0.6", policy.SpawnRate)
	}
}

func TestEvalSpawnPolicyWithoutScript(t *testing.T) {
	e := newTestEngine(t)

	_, ok, err := e.EvalSpawnPolicy(2)
	if err != nil {
		t.Fatalf("EvalSpawnPolicy: %v", err)
	}
	if ok {
		t.Fatalf("no script loaded, policy must not apply")
	}

	// The Go fallback mirrors the linear difficulty formula.
	fb := DefaultSpawnPolicy(2)
	if fb.SpawnRate != 0.5 {
		t.Fatalf("fallback spawn rate = %v, want 0.5", fb.SpawnRate)
	}
	if fb.MovingSpeed != 0.07 {
		t.Fatalf("fallback moving speed = %v, want 0.07", fb.MovingSpeed)
	}
}

func TestEvalSpawnPolicyPartialTable(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadString(`function spawn_policy(level) return { fixed_count = 7 } end`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}

	policy, ok, err := e.EvalSpawnPolicy(1)
	if err != nil || !ok {
		t.Fatalf("EvalSpawnPolicy: ok=%v err=%v", ok, err)
	}
	if policy.FixedCount != 7 {
		t.Fatalf("fixed count = %d, want 7", policy.FixedCount)
	}
	// Missing keys fall back to the formula values for the level.
	if policy.MovingCount != DefaultSpawnPolicy(1).MovingCount {
		t.Fatalf("moving count = %d, want fallback %d", policy.MovingCount, DefaultSpawnPolicy(1).MovingCount)
	}
}

func TestEvalSpawnPolicyScriptError(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadString(`function spawn_policy(level) error("boom") end`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if _, _, err := e.EvalSpawnPolicy(1); err == nil {
		t.Fatalf("expected the script error to propagate")
	}
}

func TestEvalSpawnPolicyNonTableResult(t *testing.T) {
	e := newTestEngine(t)
	if err := e.LoadString(`function spawn_policy(level) return 42 end`); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if _, _, err := e.EvalSpawnPolicy(1); err == nil {
		t.Fatalf("expected a type error for a non-table result")
	}
}

func TestNewEngineLoadsPolicyDir(t *testing.T) {
	dir := t.TempDir()
	policyDir := filepath.Join(dir, "policy")
	if err := os.MkdirAll(policyDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	script := `function spawn_policy(level) return { fixed_count = 9 } end`
	if err := os.WriteFile(filepath.Join(policyDir, "spawn.lua"), []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	policy, ok, err := e.EvalSpawnPolicy(1)
	if err != nil || !ok {
		t.Fatalf("EvalSpawnPolicy: ok=%v err=%v", ok, err)
	}
	if policy.FixedCount != 9 {
		t.Fatalf("fixed count = %d, want 9", policy.FixedCount)
	}
}

func TestNewEngineRejectsBrokenScript(t *testing.T) {
	dir := t.TempDir()
	policyDir := filepath.Join(dir, "policy")
	if err := os.MkdirAll(policyDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(policyDir, "bad.lua"), []byte("function ("), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Fatalf("expected a load error for broken lua")
	}
}
