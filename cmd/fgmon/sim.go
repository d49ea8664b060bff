package main

import (
	"fmt"
	"math/rand"

	"github.com/wippyai/framegraph/definition"
	"github.com/wippyai/framegraph/graph"
	"github.com/wippyai/framegraph/pool"
	"github.com/wippyai/framegraph/timeline"
)

// target is the synthetic payload the workload allocates.
type target struct {
	width, height int
}

type targetDef struct {
	definition.Base
	width, height int
}

func newTargetDef(w, h int) *targetDef {
	return &targetDef{Base: definition.NewBase(), width: w, height: h}
}

func (d *targetDef) CreateResource() any {
	return &target{width: d.width, height: d.height}
}

func (d *targetDef) ApplyDirect(existing any) any {
	t, ok := existing.(*target)
	if !ok || t.width != d.width || t.height != d.height {
		return nil
	}
	return t
}

func (d *targetDef) ApplyIndirect(existing any) any {
	t, ok := existing.(*target)
	if !ok {
		return nil
	}
	t.width, t.height = d.width, d.height
	return t
}

// simPass is one synthetic producer. Its ticket persists across frames so
// the pool can hand the same object back.
type simPass struct {
	name string
	pos  timeline.Position
	refs int
	def  *targetDef
	out  graph.Ticket
	in   graph.Ticket
}

func (p *simPass) LayoutChanged()              {}
func (p *simPass) Position() timeline.Position { return p.pos }
func (p *simPass) InputTickets() []graph.Ticket {
	if p.in == 0 {
		return nil
	}
	return []graph.Ticket{p.in}
}
func (p *simPass) OutputTickets() []graph.Ticket { return []graph.Ticket{p.out} }

func (p *simPass) Dereference() bool {
	p.refs--
	return p.refs > 0
}

// frameStats is the per-frame summary shown by the monitor.
type frameStats struct {
	frame       int
	declared    int
	culled      int
	allocations int
	created     int
	reallocated int
	flushed     int
	poolSize    int
}

// simulator drives a chain of synthetic passes against a live resource
// list, frame after frame. Each pass declares one output; the next pass
// consumes it. A small random fraction of outputs goes unconsumed so the
// culling cascade has work, and definitions occasionally change size so
// indirect reallocation gets exercised.
type simulator struct {
	list    *graph.List
	rng     *rand.Rand
	passes  []*simPass
	threads int
	frame   int
}

func newSimulator(passCount, threads int, seed int64) *simulator {
	if passCount < 2 {
		passCount = 2
	}
	if threads < 1 {
		threads = 1
	}
	s := &simulator{
		list:    graph.NewList(pool.NewMap()),
		rng:     rand.New(rand.NewSource(seed)),
		threads: threads,
	}
	for i := 0; i < passCount; i++ {
		s.passes = append(s.passes, &simPass{
			name: fmt.Sprintf("pass%d", i),
			pos:  timeline.Position{Thread: i % threads, Queue: i / threads},
			def:  newTargetDef(256<<(i%3), 256<<(i%3)),
		})
	}
	return s
}

func (s *simulator) pool() *pool.Map { return s.list.Pool() }

// runFrame executes one complete synthetic frame and returns its summary.
func (s *simulator) runFrame() (frameStats, error) {
	s.frame++
	s.list.BeginFrame(s.threads > 1)

	// declaration: every pass outputs one resource, reserving last frame's
	// object when it had one
	for _, p := range s.passes {
		p.refs = 0
		if p.out != 0 {
			s.list.Reserve(p.out, p.pos)
		}
		if s.rng.Intn(16) == 0 {
			// resize to force an indirect reallocation next acquire
			size := 256 << s.rng.Intn(3)
			p.def = newTargetDef(size, size)
		}
		out, err := s.list.Declare(p, p.def, p.out)
		if err != nil {
			return frameStats{}, err
		}
		p.out = out
		p.refs++
	}

	// referencing: each pass reads its predecessor's output, except for a
	// random few whose link is dropped to feed the culling cascade
	for i := 1; i < len(s.passes); i++ {
		p := s.passes[i]
		p.in = 0
		if s.rng.Intn(8) == 0 {
			continue
		}
		p.in = s.passes[i-1].out
		if err := s.list.Reference(p.in, p.pos); err != nil {
			return frameStats{}, err
		}
	}
	// the final output always has an external consumer
	last := s.passes[len(s.passes)-1]
	if err := s.list.Reference(last.out, last.pos); err != nil {
		return frameStats{}, err
	}

	culled := s.list.CullUnreferenced()

	// execution: surviving passes acquire their output, then release every
	// claim they hold
	for _, p := range s.passes {
		if !s.list.Table().Validate(p.out) {
			continue
		}
		if _, err := s.list.Acquire(p.out); err != nil {
			return frameStats{}, err
		}
		if p.in != 0 && s.list.Table().Validate(p.in) {
			if _, err := s.list.Acquire(p.in); err != nil {
				return frameStats{}, err
			}
			s.list.ReleaseOptional(p.in)
		}
		s.list.ReleaseOptional(p.out)
	}
	s.list.ReleaseOptional(last.out)

	stats := frameStats{
		frame:       s.frame,
		declared:    len(s.passes),
		culled:      culled,
		allocations: s.pool().TotalAllocations(),
		created:     s.pool().ObjectsCreated(),
		reallocated: s.pool().ObjectsReallocated(),
	}
	if err := s.list.EndFrame(); err != nil {
		return stats, err
	}
	stats.flushed = s.pool().FlushedObjects()
	stats.poolSize = s.pool().Size()
	return stats, nil
}
