package engine

import (
	"github.com/pkg/term"

	"github.com/doismellburning/dsp/internal/effect"
	"github.com/doismellburning/dsp/internal/globals"
)

// keyWorker is the terminal-key worker of §5: with stdin a tty and
// interactive mode requested, it puts the terminal in raw mode and reads
// one byte at a time, forwarding every keystroke as a signal event to
// the chain currently installed in activeChain (read under chainMu so
// it always reaches the chain actually running, not a stale one from
// before a rebuild).
type keyWorker struct {
	t    *term.Term
	quit chan struct{}
	done chan struct{}
}

// startKeyWorker opens /dev/tty in raw mode and starts the read loop. It
// returns nil if the terminal can't be opened (no controlling tty,
// e.g. running under a pipe or in a test), which is not an error: the
// feature is simply unavailable, same as the original's behavior when
// stdin isn't a tty.
func startKeyWorker(g *globals.Settings, activeChain func() *effect.Chain) *keyWorker {
	t, err := term.Open("/dev/tty", term.RawMode)
	if err != nil {
		return nil
	}
	kw := &keyWorker{t: t, quit: make(chan struct{}), done: make(chan struct{})}
	go kw.run(g, activeChain)
	return kw
}

func (kw *keyWorker) run(g *globals.Settings, activeChain func() *effect.Chain) {
	defer close(kw.done)
	buf := make([]byte, 1)
	for {
		select {
		case <-kw.quit:
			return
		default:
		}
		n, err := kw.t.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if g != nil {
			g.Logf(globals.LLVerbose, "keystroke: %q", buf[0])
		}
		if chain := activeChain(); chain != nil {
			chain.SignalAll()
		}
	}
}

// stop restores cooked terminal mode and joins the read loop. Closing
// the fd first is what actually unblocks the worker's pending Read;
// quit only short-circuits it before the next read is issued. Safe to
// call on a nil *keyWorker (no-op), matching startKeyWorker's "feature
// unavailable" case.
func (kw *keyWorker) stop() {
	if kw == nil {
		return
	}
	close(kw.quit)
	kw.t.Restore()
	kw.t.Close()
	<-kw.done
}
