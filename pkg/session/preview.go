package session

import (
	"context"
	"sync"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/processing"
	"github.com/menta2k/photo-editor/pkg/types"
)

// PreviewResult is one finished preview transform
type PreviewResult struct {
	Seq uint64
	// Source is the ID of the image the preview was computed from
	Source string
	Image  types.Image
	Err    error
}

type transformFunc func(ctx context.Context, img types.Image, opts types.ProcessingOptions) (types.Image, error)

// Previewer runs preview transforms in the background. Requests are numbered
// in submission order. In-flight work is never cancelled; with DropStale a
// result older than one already published is discarded, otherwise whichever
// finishes last wins.
type Previewer struct {
	mu     sync.Mutex
	seq    uint64
	closed bool

	pubMu     sync.Mutex
	published uint64

	dropStale bool
	transform transformFunc
	publish   func(PreviewResult)
	wg        sync.WaitGroup
}

// NewPreviewer creates a Previewer that publishes results through publish.
// publish is called from background goroutines, one call at a time.
func NewPreviewer(proc *processing.Processor, dropStale bool, publish func(PreviewResult)) *Previewer {
	return &Previewer{
		dropStale: dropStale,
		transform: proc.Transform,
		publish:   publish,
	}
}

// Submit starts a transform and returns its sequence number. After Close it
// does nothing and returns 0.
func (p *Previewer) Submit(ctx context.Context, img types.Image, opts types.ProcessingOptions) uint64 {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		logging.Logger().Debug("preview submitted after close")
		return 0
	}
	p.seq++
	seq := p.seq
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		out, err := p.transform(ctx, img, opts)
		p.deliver(PreviewResult{Seq: seq, Source: img.ID, Image: out, Err: err})
	}()
	return seq
}

// Wait blocks until every submitted transform has been delivered or dropped
func (p *Previewer) Wait() {
	p.wg.Wait()
}

// Close rejects further submissions and waits for in-flight ones
func (p *Previewer) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}

// Latest returns the sequence number of the last published result
func (p *Previewer) Latest() uint64 {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	return p.published
}

func (p *Previewer) deliver(r PreviewResult) {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()
	if p.dropStale && r.Seq < p.published {
		logging.Logger().Debug("dropping stale preview", "seq", r.Seq, "published", p.published)
		return
	}
	p.published = r.Seq
	if p.publish != nil {
		p.publish(r)
	}
}
