package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/snakego/server/internal/config"
	"github.com/snakego/server/internal/core/event"
	coresys "github.com/snakego/server/internal/core/system"
	"github.com/snakego/server/internal/data"
	"github.com/snakego/server/internal/gen"
	"github.com/snakego/server/internal/grid"
	"github.com/snakego/server/internal/manager"
	"github.com/snakego/server/internal/metrics"
	"github.com/snakego/server/internal/ops"
	"github.com/snakego/server/internal/persist"
	"github.com/snakego/server/internal/scripting"
	"github.com/snakego/server/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("SNAKEGO_CONFIG"); p != "" {
		cfgPath = p
	}
	var cfg *config.Config
	if _, err := os.Stat(cfgPath); err == nil {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Defaults()
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting",
		zap.String("server", cfg.Server.Name),
		zap.Int("grid_width", cfg.Grid.Width),
		zap.Int("grid_height", cfg.Grid.Height),
	)

	// 3. Optional telemetry database
	var telemetryRepo *persist.TelemetryRepo
	if cfg.Database.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.Open(ctx, cfg.Database, log)
		cancel()
		if err != nil {
			return fmt.Errorf("connect db: %w", err)
		}
		defer db.Close()

		migCtx, migCancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = persist.Migrate(migCtx, db.Pool)
		migCancel()
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		telemetryRepo = persist.NewTelemetryRepo(db)
		log.Info("telemetry persistence enabled")
	}

	// 4. Optional Lua spawn-policy engine
	var engine *scripting.Engine
	if cfg.Scripting.Enabled {
		engine, err = scripting.NewEngine(cfg.Scripting.ScriptsDir, log)
		if err != nil {
			return fmt.Errorf("init scripting: %w", err)
		}
		defer engine.Close()
		log.Info("lua policy engine loaded", zap.String("dir", cfg.Scripting.ScriptsDir))
	}

	// 5. Optional difficulty presets
	var levels *data.LevelTable
	if cfg.Game.LevelsPath != "" {
		if _, err := os.Stat(cfg.Game.LevelsPath); err == nil {
			levels, err = data.LoadLevels(cfg.Game.LevelsPath)
			if err != nil {
				return fmt.Errorf("load levels: %w", err)
			}
			log.Info("difficulty presets loaded", zap.Int("levels", levels.Count()))
		}
	}

	// 6. Core obstacle subsystem
	bounds := grid.Bounds{Width: cfg.Grid.Width, Height: cfg.Grid.Height}
	mon := metrics.NewMonitor()
	mgr := manager.New(bounds, mon, log, rand.New(rand.NewSource(time.Now().UnixNano())))
	mgr.Start()
	defer mgr.Stop()

	gener := gen.NewGenerator(bounds, cfg.Generation.Workers, log, nil)
	defer gener.Shutdown()

	// 7. Demo snake walking the grid; exercises the query path the way a
	// real game loop would.
	snake := newDemoSnake(bounds)

	// 8. Event bus + sinks
	bus := event.NewBus()
	event.Subscribe(bus, func(ev event.BatchMerged) {
		log.Debug("batch merged", zap.Int("requested", ev.Requested), zap.Int("merged", ev.Merged))
	})
	event.Subscribe(bus, func(ev event.ObstaclesSwept) {
		log.Debug("obstacles swept", zap.Int("removed", ev.Removed))
	})
	event.Subscribe(bus, func(ev event.PerfSampled) {
		if !ev.Snapshot.Acceptable {
			for _, w := range mon.Warnings() {
				log.Warn("performance warning", zap.String("warning", w))
			}
		}
	})
	if telemetryRepo != nil {
		event.Subscribe(bus, func(ev event.PerfSampled) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetryRepo.SaveSnapshot(ctx, cfg.Server.Name, ev.Snapshot); err != nil {
				log.Error("save perf snapshot", zap.Error(err))
			}
		})
	}

	// 9. Optional ops websocket stream
	if cfg.Ops.Enabled {
		broadcaster := ops.NewBroadcaster(cfg.Ops.BindAddress, log)
		broadcaster.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			broadcaster.Shutdown(ctx)
		}()
		event.Subscribe(bus, func(ev event.PerfSampled) {
			broadcaster.Publish(ev.Snapshot)
		})
	}

	// 10. Systems
	tuning := &system.Tuning{
		MinLifetime: cfg.Generation.MinLifetime,
		MaxLifetime: cfg.Generation.MaxLifetime,
	}
	difficultySys := system.NewDifficultySystem(mgr, levels, engine, tuning, log)
	difficultySys.Apply(cfg.Game.Difficulty)

	runner := coresys.NewRunner()
	runner.Register(difficultySys)
	runner.Register(system.NewSpawnSystem(mgr, bus, log))
	runner.Register(system.NewMovementSystem(mgr))
	runner.Register(system.NewSweepSystem(mgr, bus, time.Second))
	runner.Register(system.NewGenerationSystem(mgr, gener, bus, tuning,
		cfg.Game.TargetObstacles, cfg.Generation.MaxRetries, snake.View, log))
	runner.Register(system.NewTelemetrySystem(mon, bus, cfg.Telemetry.SnapshotInterval))

	// 11. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Game.TickRate)
	defer ticker.Stop()

	log.Info("game loop running", zap.Duration("tick", cfg.Game.TickRate))

	levelUpCounter := 0
	levelUpTicks := int((30 * time.Second) / cfg.Game.TickRate) // escalate every 30s

	for {
		select {
		case <-ticker.C:
			bus.SwapBuffers()
			bus.DispatchAll()
			runner.Tick(cfg.Game.TickRate)

			snake.Step(mgr)

			levelUpCounter++
			if levelUpCounter >= levelUpTicks {
				levelUpCounter = 0
				difficultySys.SetLevel(tuning.Level + 1)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			log.Info("final performance report", zap.String("report", "\n"+mon.Report()))
			return nil
		}
	}
}

// demoSnake is a stand-in for the real game's snake: it walks the grid on
// the game-loop goroutine and issues the same collision and placement
// queries a live game would.
type demoSnake struct {
	bounds grid.Bounds
	state  grid.Snake
	dir    grid.Position
	rng    *rand.Rand
}

func newDemoSnake(bounds grid.Bounds) *demoSnake {
	return &demoSnake{
		bounds: bounds,
		state: grid.Snake{
			Head:  grid.Position{X: bounds.Width / 2, Y: bounds.Height / 2},
			Alive: true,
		},
		dir: grid.Position{X: 1},
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// View returns the snake state for placement forbidden sets.
func (s *demoSnake) View() grid.Snake { return s.state }

// Step advances the head one cell, turning at walls and occasionally at
// random, then runs the hot-path queries.
func (s *demoSnake) Step(mgr *manager.Manager) {
	if s.rng.Intn(8) == 0 {
		if s.rng.Intn(2) == 0 {
			s.dir = grid.Position{X: -s.dir.Y, Y: s.dir.X}
		} else {
			s.dir = grid.Position{X: s.dir.Y, Y: -s.dir.X}
		}
	}
	next := grid.Position{X: s.state.Head.X + s.dir.X, Y: s.state.Head.Y + s.dir.Y}
	if !s.bounds.Contains(next) {
		s.dir = grid.Position{X: -s.dir.X, Y: -s.dir.Y}
		next = grid.Position{X: s.state.Head.X + s.dir.X, Y: s.state.Head.Y + s.dir.Y}
		next = s.bounds.Clamp(next)
	}

	s.state.Body = append([]grid.Position{s.state.Head}, s.state.Body...)
	if len(s.state.Body) > 6 {
		s.state.Body = s.state.Body[:6]
	}
	s.state.Head = next

	// The queries a real tick performs.
	mgr.CollidesWithSnake(s.state)
	mgr.IsValidFoodPosition(s.rng.Intn(s.bounds.Width), s.rng.Intn(s.bounds.Height))
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
