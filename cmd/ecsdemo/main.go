// Command ecsdemo exercises the loom engine end to end: it spawns a
// population of entities, runs a couple of structural mutations and a
// parallel stream pass, and logs throughput. It exists to give the
// library a runnable surface, not as a tuned benchmark.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/archloom/loom"
)

type position struct{ X, Y float64 }
type velocity struct{ X, Y float64 }
type health struct{ HP int }

func main() {
	count := flag.Int("entities", 100_000, "number of entities to spawn")
	profileMode := flag.String("profile", "", "pprof profile mode: cpu, mem, or empty to disable")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile).Stop()
	}

	w := loom.NewWorld(0)
	posID := loom.ComponentIDFor[position](w)
	velID := loom.ComponentIDFor[velocity](w)
	hpID := loom.ComponentIDFor[health](w)

	posExpr := loom.Plain(posID)
	velExpr := loom.Plain(velID)
	hpExpr := loom.Plain(hpID)

	start := time.Now()
	ids := w.SpawnN(*count)
	for _, id := range ids {
		if err := loom.AddComponent(w, id, posExpr, position{}); err != nil {
			logger.Fatal("add position", zap.Error(err))
		}
		if err := loom.AddComponent(w, id, velExpr, velocity{X: 1, Y: 1}); err != nil {
			logger.Fatal("add velocity", zap.Error(err))
		}
		if id.Index()%3 == 0 {
			if err := loom.AddComponent(w, id, hpExpr, health{HP: 100}); err != nil {
				logger.Fatal("add health", zap.Error(err))
			}
		}
	}
	logger.Info("spawned", zap.Int("count", *count), zap.Duration("elapsed", time.Since(start)))

	moving := loom.NewQuery(w, loom.Mask{HasTypes: []loom.TypeExpression{posExpr, velExpr}})
	alive := loom.NewQuery(w, loom.Mask{HasTypes: []loom.TypeExpression{hpExpr}})

	start = time.Now()
	err = loom.ParallelUniform2[position, velocity](w, moving, posExpr, velExpr, 0,
		func(id loom.Identity, pos *position, vel *velocity) {
			pos.X += vel.X
			pos.Y += vel.Y
		})
	if err != nil {
		logger.Fatal("parallel step", zap.Error(err))
	}
	logger.Info("stepped positions", zap.Int("matched", moving.Count()), zap.Duration("elapsed", time.Since(start)))

	damaged := 0
	loom.ForEachUniform1[health](w, alive, hpExpr, func(id loom.Identity, hp *health) bool {
		hp.HP--
		if hp.HP <= 0 {
			damaged++
		}
		return true
	})
	fmt.Printf("entities with health: %d, reached zero this tick: %d\n", alive.Count(), damaged)
}
