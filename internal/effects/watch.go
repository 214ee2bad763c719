package effects

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
	"github.com/doismellburning/dsp/internal/globals"
)

const (
	watchPollInterval   = time.Second
	watchXfadeTime      = 100 * time.Millisecond
	watchPlanningFrames = 2048
)

// A single shared goroutine polls every live watch effect's file mtime,
// refcounted so the last watch effect to be destroyed stops it, mirroring
// the worker-thread lifecycle in §5.
var (
	watchMu      sync.Mutex
	watchTargets = map[*watchState]struct{}{}
	watchQuit    chan struct{}
)

func watchWorkerAcquire(w *watchState) {
	watchMu.Lock()
	defer watchMu.Unlock()
	watchTargets[w] = struct{}{}
	if watchQuit == nil {
		watchQuit = make(chan struct{})
		go watchWorkerLoop(watchQuit)
	}
}

func watchWorkerRelease(w *watchState) {
	watchMu.Lock()
	defer watchMu.Unlock()
	delete(watchTargets, w)
	if len(watchTargets) == 0 && watchQuit != nil {
		close(watchQuit)
		watchQuit = nil
	}
}

func watchWorkerLoop(quit chan struct{}) {
	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			watchMu.Lock()
			targets := make([]*watchState, 0, len(watchTargets))
			for w := range watchTargets {
				targets = append(targets, w)
			}
			watchMu.Unlock()
			for _, w := range targets {
				w.poll()
			}
		}
	}
}

// watchState holds a live chain, a pending reload, and the crossfade in
// progress between them, per §4.6. mu guards everything that can be
// touched by both the polling worker and the processing thread; the
// processing thread itself never blocks on it beyond a pointer swap.
type watchState struct {
	mu      sync.Mutex
	path    string
	dir     string
	istream dspcore.StreamInfo
	sel     *dspcore.Selector
	ostream dspcore.StreamInfo
	resolve func(dspcore.StreamInfo, *dspcore.Selector, string, []string) (*effect.Chain, error)
	g       *globals.Settings

	active  *effect.Chain
	pending *effect.Chain
	xpos    int
	xlen    int
	maxBuf  int
	lastMod time.Time

	inCopy     []dspcore.Sample
	newScratch []dspcore.Sample
}

func (w *watchState) logf(level int, format string, args ...any) {
	if w.g != nil {
		w.g.Logf(level, format, args...)
	}
}

func (w *watchState) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		w.logf(globals.LLError, "watch: %s: %v", w.path, err)
		return
	}
	w.mu.Lock()
	changed := !info.ModTime().Equal(w.lastMod)
	w.mu.Unlock()
	if !changed {
		return
	}
	w.reload(info.ModTime())
}

// reload rebuilds the sub-chain from the watched file and, if it
// passes validation, installs it as the pending chain for a crossfade.
// A rejected reload is logged and the old chain keeps running, per the
// §4.6 validation rules (output stream must match; buffer length must
// not exceed what was planned at construction, since buffers are never
// re-planned after startup).
func (w *watchState) reload(mtime time.Time) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logf(globals.LLError, "watch: %s: %v", w.path, err)
		return
	}
	toks := dspcore.Tokenize(string(data))
	if n := len(toks); n > 0 && toks[n-1] == "#EOF#" {
		toks = toks[:n-1]
	}
	newChain, err := w.resolve(w.istream, w.sel, w.dir, toks)
	if err != nil {
		w.logf(globals.LLError, "watch: %s: rebuild failed: %v", w.path, err)
		return
	}
	if !newChain.OStream().Equal(w.ostream) {
		w.logf(globals.LLError, "watch: %s: rejecting reload: output stream changed", w.path)
		newChain.Destroy()
		return
	}
	newLen := newChain.BufferLen(watchPlanningFrames, newChain.IStream().Channels)
	if newLen > w.maxBuf {
		w.logf(globals.LLError, "watch: %s: rejecting reload: buffer length %d exceeds planned maximum %d (buffers are never re-planned after startup)", w.path, newLen, w.maxBuf)
		newChain.Destroy()
		return
	}
	w.mu.Lock()
	w.pending = newChain
	w.xpos = 0
	w.lastMod = mtime
	w.mu.Unlock()
	w.logf(globals.LLVerbose, "watch: %s: reloaded", w.path)
}

func (w *watchState) ensureScratch(n int) {
	if cap(w.inCopy) < n {
		w.inCopy = make([]dspcore.Sample, n)
	}
	if cap(w.newScratch) < n {
		w.newScratch = make([]dspcore.Sample, n)
	}
}

func (w *watchState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	w.mu.Lock()
	active := w.active
	pending := w.pending
	xpos := w.xpos
	xlen := w.xlen
	w.mu.Unlock()

	if pending == nil {
		return effect.RunChain(active, frames, in, out)
	}

	channels := w.ostream.Channels
	w.ensureScratch(frames * channels)
	copy(w.inCopy[:frames*channels], in[:frames*channels])

	oldBuf, oldN := effect.RunChain(active, frames, in, out)
	newBuf, newN := effect.RunChain(pending, frames, w.inCopy[:frames*channels], w.newScratch[:frames*channels])

	n := oldN
	if newN < n {
		n = newN
	}
	for f := 0; f < n; f++ {
		t := float64(xpos+f) / float64(xlen)
		if t > 1 {
			t = 1
		}
		for ch := 0; ch < channels; ch++ {
			o := oldBuf[f*channels+ch]
			nw := newBuf[f*channels+ch]
			out[f*channels+ch] = o*(1-t) + nw*t
		}
	}

	w.mu.Lock()
	newXpos := xpos + n
	if newXpos >= xlen {
		old := w.active
		w.active = w.pending
		w.pending = nil
		w.xpos = 0
		w.mu.Unlock()
		old.Destroy()
	} else {
		w.xpos = newXpos
		w.mu.Unlock()
	}
	return out, n
}

func (w *watchState) reset() {
	w.mu.Lock()
	if w.pending != nil {
		old := w.active
		w.active = w.pending
		w.pending = nil
		w.xpos = 0
		w.mu.Unlock()
		old.Destroy()
	} else {
		w.mu.Unlock()
	}
	w.mu.Lock()
	active := w.active
	w.mu.Unlock()
	active.Reset()
}

func (w *watchState) signal() {
	w.mu.Lock()
	active := w.active
	w.mu.Unlock()
	active.SignalAll()
}

func (w *watchState) delay() int {
	w.mu.Lock()
	active := w.active
	w.mu.Unlock()
	return active.Delay()
}

func (w *watchState) bufferFrames(inFrames int) int {
	channels := w.ostream.Channels
	if channels == 0 {
		channels = 1
	}
	bf := (w.maxBuf + channels - 1) / channels
	if inFrames > bf {
		bf = inFrames
	}
	return bf
}

func (w *watchState) destroy() {
	watchWorkerRelease(w)
	w.mu.Lock()
	active, pending := w.active, w.pending
	w.active, w.pending = nil, nil
	w.mu.Unlock()
	if pending != nil {
		pending.Destroy()
	}
	if active != nil {
		active.Destroy()
	}
}

func init() {
	register("watch", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 1 {
			return nil, 0, errArgs("watch", args)
		}
		path := args[0]
		full := path
		if !filepath.IsAbs(path) {
			full = filepath.Join(ctx.Dir, path)
		}
		info, err := os.Stat(full)
		if err != nil {
			return nil, 0, err
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, 0, err
		}
		toks := dspcore.Tokenize(string(data))
		if n := len(toks); n > 0 && toks[n-1] == "#EOF#" {
			toks = toks[:n-1]
		}
		initial, err := ctx.Resolve(ctx.IStream, ctx.Selector, filepath.Dir(full), toks)
		if err != nil {
			return nil, 1, err
		}
		maxBuf := initial.BufferLen(watchPlanningFrames, initial.IStream().Channels)
		ostream := initial.OStream()
		xlen := int(float64(ostream.FS) * watchXfadeTime.Seconds())
		if xlen < 1 {
			xlen = 1
		}
		w := &watchState{
			path: full, dir: filepath.Dir(full),
			istream: ctx.IStream, sel: ctx.Selector, ostream: ostream,
			resolve: ctx.Resolve, g: ctx.Globals,
			active: initial, xlen: xlen, maxBuf: maxBuf, lastMod: info.ModTime(),
		}
		watchWorkerAcquire(w)
		e := newEffect("watch", ctx, ostream)
		if e.IsMixer() {
			e.Flags |= effect.PlotMix
		}
		e.Run = w.run
		e.Reset = w.reset
		e.Signal = w.signal
		e.Delay = w.delay
		e.BufferFrames = w.bufferFrames
		e.Destroy = w.destroy
		e.Plot = func(idx int) []string { return []string{"# watch idx=" + strconv.Itoa(idx) + " path=" + full} }
		return e, 1, nil
	})
}
