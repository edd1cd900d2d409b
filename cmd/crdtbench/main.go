// Command crdtbench is a flags-driven one-shot CLI, in the shape of
// cmd/bulk-delete/main.go, that builds a storage.Storage over a generated
// corpus with either initial layout (Sparse or Dense) and reports the resulting
// path-length distribution — useful for eyeballing how badly Dense's
// single-digit paths degrade under subsequent inserts versus Sparse's
// pre-spread allocation.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/edirooss/seqcrdt/internal/crdt/algorithm"
	"github.com/edirooss/seqcrdt/internal/crdt/pos"
	"github.com/edirooss/seqcrdt/internal/crdt/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	mode := flag.String("mode", "sparse", "initial layout: sparse|dense")
	n := flag.Int("n", 1000, "number of characters in the generated corpus")
	seed := flag.Int64("seed", 1, "RNG seed for the allocation strategy and the insert positions")
	limit := flag.Int("limit", 1024, "BoundaryPlus step limit")
	inserts := flag.Int("inserts", 0, "additional random-position inserts to perform after the initial load")
	flag.Parse()

	if *n <= 0 {
		fmt.Println("Usage: ./crdtbench -mode=sparse|dense -n=<chars> [-inserts=<count>]")
		os.Exit(1)
	}

	log := buildLogger()
	log = log.Named("main")

	corpus := strings.Repeat("x", *n)
	algo := algorithm.NewBoundaryPlus(*seed, uint32(*limit))

	var st *storage.Storage
	var err error
	switch *mode {
	case "sparse":
		st, err = storage.Sparse(1, algo, corpus)
	case "dense":
		st, err = storage.Dense(1, algo, corpus)
	default:
		log.Fatal("unknown mode", zap.String("mode", *mode))
	}
	if err != nil {
		log.Fatal("initial load failed", zap.Error(err))
	}

	rng := rand.New(rand.NewSource(*seed))
	for i := 0; i < *inserts; i++ {
		var live []pos.Position
		st.VisitCharacters(storage.Unbounded(), func(p pos.Position, _ rune) bool {
			live = append(live, p)
			return true
		})
		before := pos.Last()
		if len(live) > 0 {
			before = live[rng.Intn(len(live))]
		}
		if _, ok := st.Insert('y', before); !ok {
			log.Fatal("insert failed", zap.Int("iteration", i))
		}
	}

	report(log, st)
}

func report(log *zap.Logger, st *storage.Storage) {
	lengths := map[int]int{}
	maxLen := 0
	st.VisitCharacters(storage.Unbounded(), func(p pos.Position, _ rune) bool {
		l := p.Path().Len()
		lengths[l]++
		if l > maxLen {
			maxLen = l
		}
		return true
	})

	log.Info("load complete", zap.Int("entries", st.Len()))
	for l := 0; l <= maxLen; l++ {
		if count, ok := lengths[l]; ok {
			log.Info("path length histogram", zap.Int("digits", l), zap.Int("count", count))
		}
	}
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}
