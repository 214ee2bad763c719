// Package builder parses a chain-script token vector into an effects
// chain, per the grammar and channel-reconciliation rules of §4.2: the
// "!" failure-tolerance marker, ":selector" assignment, "@path"
// inclusion, "{ }" nested blocks, and the mask/selector bookkeeping
// that keeps brace-scoped addressing correct across channel-count
// changing effects.
package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
	"github.com/doismellburning/dsp/internal/effects"
	"github.com/doismellburning/dsp/internal/globals"
)

// EOFMarker is the literal token a chain-script file must end with when
// the caller enables EOF-marker enforcement.
const EOFMarker = "#EOF#"

type parser struct {
	g          *globals.Settings
	requireEOF bool
}

// Build parses tokens into a new effects chain rooted at istream, with
// every channel addressable (the top-level mask), resolving relative
// "@path" tokens against dir, then runs the post-build peephole
// optimizer. On any hard failure the partially built chain is
// destroyed before returning.
func Build(g *globals.Settings, istream dspcore.StreamInfo, dir string, tokens []string, requireEOF bool) (*effect.Chain, error) {
	return BuildMasked(g, istream, dspcore.NewSelector(istream.Channels), dir, tokens, requireEOF)
}

// BuildMasked is Build with an explicit starting mask, used by the
// watch effect to rebuild its sub-chain against the same addressable
// channel subset it was originally given.
func BuildMasked(g *globals.Settings, istream dspcore.StreamInfo, mask *dspcore.Selector, dir string, tokens []string, requireEOF bool) (*effect.Chain, error) {
	p := &parser{g: g, requireEOF: requireEOF}
	chain := &effect.Chain{}
	stream := istream
	if err := p.block(chain, &stream, tokens, mask, dir); err != nil {
		chain.Destroy()
		return nil, err
	}
	if err := chain.Validate(); err != nil {
		chain.Destroy()
		return nil, err
	}
	effect.Optimize(chain, g)
	return chain, nil
}

func (p *parser) logVerbose(format string, args ...any) {
	if p.g != nil {
		p.g.Logf(globals.LLVerbose, format, args...)
	}
}

// block parses one brace-scoped run of tokens, appending effects to
// chain and threading stream through each effect's ostream. mask is the
// set of channels addressable in this scope (the enclosing selector,
// for a nested block).
func (p *parser) block(chain *effect.Chain, stream *dspcore.StreamInfo, tokens []string, mask *dspcore.Selector, dir string) error {
	selector, err := dspcore.ParseSelectorMasked("", mask)
	if err != nil {
		return err
	}
	lastSelStr := ""
	haveSelStr := false
	lastChannels := stream.Channels
	allowFail := false

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		if tok == "!" {
			allowFail = true
			i++
			continue
		}

		if lastChannels != stream.Channels {
			mask = dspcore.GrowMask(mask, stream.Channels)
			if !strings.HasPrefix(tok, ":") {
				if !haveSelStr {
					selector, err = dspcore.ParseSelectorMasked("", mask)
				} else {
					selector, err = dspcore.ParseSelectorMasked(lastSelStr, mask)
				}
				if err != nil {
					p.logVerbose("note: the last effect changed the number of channels")
					return fmt.Errorf("channel reconciliation: %w", err)
				}
			}
			lastChannels = stream.Channels
		}

		switch {
		case strings.HasPrefix(tok, ":"):
			lastSelStr = tok[1:]
			haveSelStr = true
			selector, err = dspcore.ParseSelectorMasked(lastSelStr, mask)
			if err != nil {
				return fmt.Errorf("selector %q: %w", tok, err)
			}
			i++

		case strings.HasPrefix(tok, "@"):
			if err := p.includeFile(chain, stream, tok[1:], selector, dir); err != nil {
				return err
			}
			i++

		case tok == "{":
			depth := 1
			j := i + 1
			for ; j < len(tokens) && depth > 0; j++ {
				switch tokens[j] {
				case "{":
					depth++
				case "}":
					depth--
				}
			}
			if depth > 0 {
				return fmt.Errorf("effects chain: missing '}'")
			}
			inner := tokens[i+1 : j-1]
			if err := p.block(chain, stream, inner, selector, dir); err != nil {
				return err
			}
			i = j

		case tok == "}":
			return fmt.Errorf("effects chain: unexpected '}'")

		default:
			end := i + 1
			for end < len(tokens) && !p.startsElement(tokens[end]) {
				end++
			}
			args := tokens[i+1 : end]
			if err := p.applyEffect(chain, stream, tok, args, selector, dir, allowFail); err != nil {
				return err
			}
			allowFail = false
			i = end
		}
	}
	return nil
}

// startsElement reports whether tok begins a new effect-script element,
// the boundary the argument-collection scan stops at.
func (p *parser) startsElement(tok string) bool {
	if tok == "{" || tok == "}" || tok == "!" {
		return true
	}
	if strings.HasPrefix(tok, ":") || strings.HasPrefix(tok, "@") {
		return true
	}
	_, ok := effects.Lookup(tok)
	return ok
}

func (p *parser) applyEffect(chain *effect.Chain, stream *dspcore.StreamInfo, name string, args []string, sel *dspcore.Selector, dir string, allowFail bool) error {
	initFn, ok := effects.Lookup(name)
	if !ok {
		if allowFail {
			p.logVerbose("warning: no such effect: %s", name)
			return nil
		}
		return fmt.Errorf("no such effect: %s", name)
	}

	p.logVerbose("effect: %s %v; channels=%d fs=%d", name, args, stream.Channels, stream.FS)

	ctx := &effects.Context{
		IStream:  *stream,
		Selector: sel,
		Dir:      dir,
		Globals:  p.g,
		Resolve: func(istream dspcore.StreamInfo, sel *dspcore.Selector, dir string, toks []string) (*effect.Chain, error) {
			return BuildMasked(p.g, istream, sel, dir, toks, p.requireEOF)
		},
	}
	e, _, err := initFn(ctx, args)
	if err != nil {
		if allowFail {
			p.logVerbose("warning: failed to initialize non-essential effect: %s", name)
			return nil
		}
		return fmt.Errorf("effect %s: %w", name, err)
	}
	for e != nil {
		next := e.Next
		e.Next = nil
		if e.Run == nil {
			p.logVerbose("info: not using effect: %s", name)
			e.DestroyOne()
		} else {
			chain.Append(e)
			*stream = e.OStream
		}
		e = next
	}
	return nil
}

func (p *parser) includeFile(chain *effect.Chain, stream *dspcore.StreamInfo, path string, sel *dspcore.Selector, dir string) error {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return fmt.Errorf("effects file: %s: %w", full, err)
	}
	toks := dspcore.Tokenize(string(data))
	if p.requireEOF {
		if len(toks) == 0 || toks[len(toks)-1] != EOFMarker {
			return fmt.Errorf("effects file %s: missing %s marker", full, EOFMarker)
		}
		toks = toks[:len(toks)-1]
	}
	p.logVerbose("info: begin effects file: %s", full)
	if err := p.block(chain, stream, toks, sel, filepath.Dir(full)); err != nil {
		return err
	}
	p.logVerbose("info: end effects file: %s", full)
	return nil
}
