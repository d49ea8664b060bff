package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"
)

func main() {
	var (
		frames  = flag.Int("frames", 0, "Stop after N frames (0 = run until quit)")
		passes  = flag.Int("passes", 8, "Synthetic passes per frame")
		threads = flag.Int("threads", 1, "Simulated timeline threads")
		seed    = flag.Int64("seed", 1, "Workload random seed")
		once    = flag.Bool("once", false, "Run a single frame, print statistics, exit")
	)
	flag.Parse()

	sim := newSimulator(*passes, *threads, *seed)

	if *once || !term.IsTerminal(int(os.Stdout.Fd())) {
		n := *frames
		if n == 0 {
			n = 1
		}
		if err := runPlain(sim, n); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runInteractive(sim, *frames); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPlain(sim *simulator, frames int) error {
	for i := 0; i < frames; i++ {
		st, err := sim.runFrame()
		if err != nil {
			return err
		}
		fmt.Printf("frame %d: declared=%d culled=%d allocations=%d created=%d reallocated=%d flushed=%d pooled=%d\n",
			st.frame, st.declared, st.culled, st.allocations, st.created, st.reallocated, st.flushed, st.poolSize)
	}
	return nil
}
