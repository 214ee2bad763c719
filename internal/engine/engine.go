// Package engine drives the execution loop of §4.3: it owns the
// scratch buffers, wires auto-dither, runs the chain over one or more
// codecs in sequence, and renders plot mode instead of running when
// asked to.
package engine

import (
	"errors"
	"io"
	"sync"

	"github.com/doismellburning/dsp/internal/builder"
	"github.com/doismellburning/dsp/internal/codec"
	"github.com/doismellburning/dsp/internal/dither"
	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
	"github.com/doismellburning/dsp/internal/effects"
	"github.com/doismellburning/dsp/internal/globals"
)

// Options bundles the per-stream settings that drive one Run call: the
// script tokens to build the chain from, the resource directory for
// relative paths, the block size and read/write buffer depths, and the
// user's dither override.
type Options struct {
	Tokens      []string
	Dir         string
	BlockFrames int
	ReadBlocks  int
	WriteBlocks int
	Dither      dither.Force
	DitherPrec  int
	RequireEOF  bool
	PlotOut     io.Writer
	PlotPhase   bool
	// NoDrainOnRebuild skips draining the outgoing chain's tail when a
	// stream-format change forces a rebuild between inputs (-E).
	NoDrainOnRebuild bool
	// Interactive starts the terminal-key worker, forwarding keystrokes
	// to the running chain as signal events (§5).
	Interactive bool
}

// Engine runs one input/output codec pair (or sequence of inputs)
// through a built chain, per §4.3.
type Engine struct {
	g   *globals.Settings
	opt Options
}

func New(g *globals.Settings, opt Options) *Engine {
	return &Engine{g: g, opt: opt}
}

// buildChain constructs a chain against in's stream, auto-inserting or
// reconfiguring a dither effect per §4.4.
func (en *Engine) buildChain(in, out *codec.Codec) (*effect.Chain, error) {
	istream := in.Stream()
	chain, err := builder.Build(en.g, istream, en.opt.Dir, en.opt.Tokens, en.opt.RequireEOF)
	if err != nil {
		return nil, err
	}
	hasEffects := chain.NeedsDither()
	if dither.ShouldDither(in, out, hasEffects, en.opt.Dither) {
		if existing := chain.FindDither(); existing != nil {
			effects.DitherSetParams(existing, en.opt.DitherPrec, true)
		} else {
			ctx := &effects.Context{
				IStream: chain.OStream(),
				Selector: dspcore.NewSelector(chain.OStream().Channels),
				Dir:      en.opt.Dir,
				Globals:  en.g,
			}
			chain.Append(effects.NewDitherEffect(ctx, en.opt.DitherPrec, true))
		}
	} else if existing := chain.FindDither(); existing != nil {
		effects.DitherSetParams(existing, en.opt.DitherPrec, false)
	}
	return chain, nil
}

// Run walks codecs in sequence, reading each one to EOF through its own
// single-codec read buffer (so read-ahead never runs into the next
// codec) and rebuilding the chain whenever the stream's rate or channel
// count changes from the previous member, per §4.3's "rate/channel
// changes between inputs" rule. The output codec is wrapped once and
// reused across the whole sequence; it is not reopened when a rebuilt
// chain's output stream differs from the stream it was opened with.
func (en *Engine) Run(codecs *codec.List, out *codec.Codec) error {
	if codecs.Head == nil {
		return errors.New("engine: empty input codec list")
	}
	writeCodec := codec.WrapWrite(out, en.opt.WriteBlocks)
	defer func() {
		if writeCodec.Destroy != nil {
			writeCodec.Destroy()
		}
	}()

	var chainMu sync.Mutex
	var chain *effect.Chain
	var prevStream dspcore.StreamInfo
	var bufA, bufB []dspcore.Sample
	blockFrames := en.opt.BlockFrames

	if en.opt.Interactive {
		kw := startKeyWorker(en.g, func() *effect.Chain {
			chainMu.Lock()
			defer chainMu.Unlock()
			return chain
		})
		defer kw.stop()
	}

	defer func() {
		if chain != nil {
			chain.Destroy()
		}
	}()

	for cur := codecs.Head; cur != nil; {
		next := cur.Next
		cur.Next = nil // isolate so this codec's read buffer can't chase past it
		single := &codec.List{}
		single.Append(cur)
		readBuf := codec.Wrap(single, blockFrames, en.opt.ReadBlocks)

		stream := cur.Stream()
		if chain == nil || !stream.Equal(prevStream) {
			if chain != nil {
				chain.Destroy()
			}
			newChain, err := en.buildChain(cur, out)
			if err != nil {
				return err
			}
			chainMu.Lock()
			chain = newChain
			chainMu.Unlock()
			prevStream = stream

			if en.opt.PlotOut != nil {
				return effect.Plot(chain, en.opt.PlotOut, en.opt.PlotPhase)
			}

			bufLen := chain.BufferLen(blockFrames, stream.Channels)
			if n := chain.MaxOutFrames(blockFrames) * chain.OStream().Channels; n > bufLen {
				bufLen = n
			}
			bufA = make([]dspcore.Sample, bufLen)
			bufB = make([]dspcore.Sample, bufLen)
		}

		for {
			n, err := readBuf.Read(bufA[:blockFrames*stream.Channels], blockFrames)
			if err != nil {
				if readBuf.Destroy != nil {
					readBuf.Destroy()
				}
				return err
			}
			if n == 0 {
				break
			}
			buf, outN := effect.RunChain(chain, n, bufA, bufB)
			if outN > 0 {
				if _, err := writeCodec.Write(buf, outN); err != nil {
					if readBuf.Destroy != nil {
						readBuf.Destroy()
					}
					return err
				}
			}
		}
		if readBuf.Destroy != nil {
			readBuf.Destroy()
		}
		cur.Next = next
		if (next == nil || !next.Stream().Equal(stream)) && !en.opt.NoDrainOnRebuild {
			en.drainAndFlush(chain, writeCodec, bufA, bufB)
		}
		cur = next
	}
	return nil
}

// drainAndFlush runs the chain's drain phase to completion, writing
// every residual block to out. Returns true once fully exhausted.
func (en *Engine) drainAndFlush(chain *effect.Chain, out *codec.Codec, bufA, bufB []dspcore.Sample) bool {
	for {
		buf, n, done := effect.DrainChain(chain, bufA, bufB)
		if done {
			return true
		}
		if n > 0 {
			out.Write(buf, n)
		}
	}
}
