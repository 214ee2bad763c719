// Package config loads optional effect-chain presets from a YAML file:
// named, reusable chain-script fragments the CLI can pull into a
// stream's token list by name, in addition to the builder's own
// `@path` file inclusion.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doismellburning/dsp/internal/dspcore"
)

// Presets is the on-disk preset file shape: a flat map from preset name
// to the chain-script fragment it expands to.
type Presets struct {
	Presets map[string]string `yaml:"presets"`
}

// Load reads and parses a preset file at path.
func Load(path string) (*Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Presets
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &p, nil
}

// Tokens returns the tokenized fragment for name, or false if undefined.
func (p *Presets) Tokens(name string) ([]string, bool) {
	if p == nil {
		return nil, false
	}
	src, ok := p.Presets[name]
	if !ok {
		return nil, false
	}
	return dspcore.Tokenize(src), true
}

// Expand walks tokens left to right, replacing any token of the form
// "%name" with the preset's tokenized fragment, recursively, up to a
// fixed depth to reject cyclic presets rather than looping forever.
func (p *Presets) Expand(tokens []string) ([]string, error) {
	return p.expand(tokens, 0)
}

const maxExpandDepth = 16

func (p *Presets) expand(tokens []string, depth int) ([]string, error) {
	if depth > maxExpandDepth {
		return nil, fmt.Errorf("config: preset expansion too deep (cycle?)")
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(t) > 1 && t[0] == '%' {
			name := t[1:]
			frag, ok := p.Tokens(name)
			if !ok {
				return nil, fmt.Errorf("config: unknown preset %q", name)
			}
			expanded, err := p.expand(frag, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, expanded...)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
