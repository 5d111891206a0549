package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/menta2k/photo-editor/pkg/processing"
	"github.com/menta2k/photo-editor/pkg/types"
)

// gatedPreviewer returns a previewer whose transforms block until released
func gatedPreviewer(dropStale bool) (*Previewer, map[float64]chan struct{}, *[]uint64, *sync.Mutex) {
	gates := map[float64]chan struct{}{
		0.5: make(chan struct{}),
		2:   make(chan struct{}),
	}
	var mu sync.Mutex
	var published []uint64
	p := NewPreviewer(processing.NewProcessor(), dropStale, func(r PreviewResult) {
		mu.Lock()
		published = append(published, r.Seq)
		mu.Unlock()
	})
	p.transform = func(ctx context.Context, img types.Image, opts types.ProcessingOptions) (types.Image, error) {
		<-gates[opts.Scale]
		return types.Image{ID: img.ID, Width: int(opts.Scale * 100)}, nil
	}
	return p, gates, &published, &mu
}

func TestPreviewerDropsStale(t *testing.T) {
	p, gates, published, _ := gatedPreviewer(true)
	img := types.Image{ID: "a"}

	first := p.Submit(context.Background(), img, types.ProcessingOptions{Scale: 0.5})
	second := p.Submit(context.Background(), img, types.ProcessingOptions{Scale: 2})
	if second <= first {
		t.Fatalf("Sequence numbers should increase: %d, %d", first, second)
	}

	close(gates[2])
	close(gates[0.5])
	p.Wait()

	if len(*published) != 1 || (*published)[0] != second {
		t.Errorf("Expected only the newest result, got %v", *published)
	}
	if p.Latest() != second {
		t.Errorf("Latest should be %d, got %d", second, p.Latest())
	}
}

func TestPreviewerLastCompletedWins(t *testing.T) {
	p, gates, published, _ := gatedPreviewer(false)
	img := types.Image{ID: "a"}

	first := p.Submit(context.Background(), img, types.ProcessingOptions{Scale: 0.5})
	second := p.Submit(context.Background(), img, types.ProcessingOptions{Scale: 2})

	close(gates[2])
	// wait until the newer result is out before letting the old one finish
	for p.Latest() != second {
		time.Sleep(time.Millisecond)
	}
	close(gates[0.5])
	p.Wait()

	if len(*published) != 2 || (*published)[1] != first {
		t.Errorf("Expected the older result to land last, got %v", *published)
	}
}

func TestPreviewerClose(t *testing.T) {
	p, gates, published, mu := gatedPreviewer(true)
	img := types.Image{ID: "a"}

	p.Submit(context.Background(), img, types.ProcessingOptions{Scale: 0.5})
	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Close returned while a transform was running")
	case <-time.After(20 * time.Millisecond):
	}
	close(gates[0.5])
	<-done

	if seq := p.Submit(context.Background(), img, types.ProcessingOptions{Scale: 2}); seq != 0 {
		t.Errorf("Submit after Close should be rejected, got seq %d", seq)
	}
	p.Wait()
	mu.Lock()
	defer mu.Unlock()
	if len(*published) != 1 {
		t.Errorf("Expected only the pre-close result, got %v", *published)
	}
}

func TestSessionCloseWithPendingFlush(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Debounce = time.Millisecond
	s := New(nil, cfg)
	s.Load(types.Image{ID: "a"})
	for i := 0; i < 20; i++ {
		s.debouncer.Trigger(func() {
			s.previewer.Submit(context.Background(), types.Image{ID: "a"}, types.DefaultProcessingOptions())
		})
		if i%2 == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	s.Close()
	if seq := s.previewer.Submit(context.Background(), types.Image{ID: "a"}, types.DefaultProcessingOptions()); seq != 0 {
		t.Errorf("Previewer should be closed, got seq %d", seq)
	}
}
