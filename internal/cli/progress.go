package cli

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// segmentProgress renders a counting bar as transcription workers finish.
// The bar is created lazily on the first report because the segment count
// is only known once the job is planned. Once stopped, late reports are
// ignored so the bar is never recreated after the job settled.
type segmentProgress struct {
	enabled bool
	out     io.Writer

	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	stopped bool
}

func newSegmentProgress(enabled bool) *segmentProgress {
	return &segmentProgress{enabled: enabled, out: os.Stderr}
}

func (p *segmentProgress) report(completed, total int) {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if p.bar == nil {
		p.bar = progressbar.NewOptions(
			total,
			progressbar.OptionSetDescription("transcribing segments"),
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetWidth(20),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = p.bar.Set(completed)
}

func (p *segmentProgress) stop() {
	if !p.enabled {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopped = true
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
