// Command gcdemo drives a toy heap through the collector so its pacing
// and phase transitions can be watched from the outside. It is not a
// Lua runtime: the "tables" and "strings" it builds exist only to give
// the collector something heterogeneous to trace.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"

	"github.com/arborlang/gc"
)

func main() {
	objects := flag.Int("objects", 5000, "number of table/string objects to allocate")
	mode := flag.String("mode", "incremental", "collector mode: incremental, minor, major")
	seed := flag.Int64("seed", 1, "random seed for the toy heap shape")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger setup:", err)
		os.Exit(1)
	}
	defer log.Sync()

	var m gc.Mode
	switch *mode {
	case "incremental":
		m = gc.ModeIncremental
	case "minor":
		m = gc.ModeGenerationalMinor
	case "major":
		m = gc.ModeGenerationalMajor
	default:
		fmt.Fprintln(os.Stderr, "unknown mode:", *mode)
		os.Exit(1)
	}

	c := gc.New(gc.WithLogger(log), gc.WithMode(m))

	registry := &gc.Table{Header: gc.Header{Tag: gc.TagTable}, Hash: map[gc.Value]gc.Value{}}
	c.NewObject(registry, 64)
	c.Registry = registry

	main := &gc.Thread{Header: gc.Header{Tag: gc.TagThread}, Stack: make([]gc.Value, 64)}
	c.NewObject(main, 128)
	c.MainThread = main
	c.RunningThread = main

	rng := rand.New(rand.NewSource(*seed))
	var live []*gc.Table

	for i := 0; i < *objects; i++ {
		t := &gc.Table{Header: gc.Header{Tag: gc.TagTable}, Hash: map[gc.Value]gc.Value{}}
		c.NewObject(t, 48)

		if len(live) > 0 {
			parent := live[rng.Intn(len(live))]
			t.Hash["parent"] = parent
		}
		live = append(live, t)

		if i%500 == 0 {
			registry.Hash[fmt.Sprintf("root-%d", i)] = t
			fmt.Printf("i=%-6d phase=%-14s mode=%-18s bytes=%-8d debt=%d\n",
				i, c.Phase(), c.ModeOf(), c.TotalBytes(), c.Debt())
		}
	}

	fmt.Println("running final collection...")
	c.Full(false)
	fmt.Printf("done: phase=%s bytes=%d debt=%d\n", c.Phase(), c.TotalBytes(), c.Debt())

	c.FreeAll(main)
	fmt.Printf("after FreeAll: bytes=%d\n", c.TotalBytes())
}
