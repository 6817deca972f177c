package stats

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"

	"goalchase/internal/evo"
	"goalchase/internal/model"
)

// Progress keeps a single live status line for a running evaluation.
// Candidate is safe to use as an evo.ReportFunc.
type Progress struct {
	writer *uilive.Writer

	mu          sync.Mutex
	generations int
	population  int
	generation  int
	evaluated   int
	rollover    bool
	failures    int
	best        float64
	haveBest    bool
	running     bool
}

func NewProgress(out io.Writer, generations, population int) *Progress {
	writer := uilive.New()
	writer.Out = out
	writer.RefreshInterval = 100 * time.Millisecond
	return &Progress{writer: writer, generations: generations, population: population}
}

func (p *Progress) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.writer.Start()
	p.render()
}

func (p *Progress) Candidate(res evo.CandidateResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// The finished generation's count stays on screen until the next one
	// reports its first candidate.
	if p.rollover {
		p.evaluated = 0
		p.rollover = false
	}
	p.evaluated++
	if res.Err != nil {
		p.failures++
	}
	if !p.haveBest || res.Fitness() > p.best {
		p.best = res.Fitness()
		p.haveBest = true
	}
	p.render()
}

func (p *Progress) Generation(rec model.GenerationRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.generation = rec.Generation + 1
	p.rollover = true
	p.render()
}

func (p *Progress) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	p.running = false
	p.render()
	p.writer.Stop()
}

func (p *Progress) render() {
	fmt.Fprintf(p.writer, "generation %d/%d  candidates %d/%d  best %.4f  failures %d\n",
		p.generation, p.generations, p.evaluated, p.population, p.best, p.failures)
	_ = p.writer.Flush()
}
