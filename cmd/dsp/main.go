// Command dsp is a streaming audio effects-chain processor: one or
// more input streams, an optional output stream, and a trailing
// effect-chain script, per §6 of the external interface.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/doismellburning/dsp/internal/codec"
	"github.com/doismellburning/dsp/internal/config"
	"github.com/doismellburning/dsp/internal/dither"
	"github.com/doismellburning/dsp/internal/engine"
	"github.com/doismellburning/dsp/internal/globals"
)

// streamSpec is one input or output stream's per-stream options, built
// up by the hand-rolled scanner since -t/-e/-B/-L/-N/-r/-c/-R/-n/-o
// repeat once per stream and don't fit a flat pflag set.
type streamSpec struct {
	isOutput bool
	typ      string
	enc      string
	endian   codec.Endian
	rate     int
	channels int
	ratio    int
	null     bool
	path     string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	blockFrames := pflag.IntP("block-frames", "b", codec.DefaultBlockFrames, "Block size in frames.")
	forceInteractive := pflag.BoolP("interactive", "i", false, "Force interactive mode.")
	disableInteractive := pflag.BoolP("no-interactive", "I", false, "Disable interactive mode.")
	quiet := pflag.BoolP("quiet", "q", false, "Suppress progress output.")
	silent := pflag.BoolP("silent", "s", false, "Suppress all but error output.")
	verbose := pflag.BoolP("verbose", "v", false, "Verbose output.")
	forceDither := pflag.BoolP("dither", "d", false, "Force dither on.")
	disableDither := pflag.BoolP("no-dither", "D", false, "Force dither off.")
	noDrainOnRebuild := pflag.BoolP("no-drain-rebuild", "E", false, "Do not drain when rebuilding the chain.")
	plotMag := pflag.BoolP("plot", "p", false, "Plot magnitude instead of processing.")
	plotPhase := pflag.BoolP("plot-phase", "P", false, "Plot magnitude and phase instead of processing.")
	veryVerbose := pflag.BoolP("very-verbose", "V", false, "Very verbose progress.")
	sequenceMode := pflag.BoolP("sequence", "S", false, "Sequence-mode input: each codec treated independently.")
	presetFile := pflag.String("presets", "", "Path to a YAML effect-chain preset file.")
	requireEOF := pflag.Bool("require-eof", false, "Require the #EOF# marker at the end of included chain-script files.")

	pflag.CommandLine.Parse(args)
	// -S is accepted for interface completeness: every stream switch is
	// already handled as an independent "sequence" member (see
	// engine.Run), so there is no separate concatenation mode to opt out of.
	_ = sequenceMode

	level := globals.LLNormal
	switch {
	case *silent:
		level = globals.LLSilent
	case *quiet:
		level = globals.LLError
	case *veryVerbose, *verbose:
		level = globals.LLVerbose
	}
	g := globals.New("dsp", level)

	rest := pflag.Args()
	specs, scriptTokens, err := parseStreams(rest)
	if err != nil {
		g.Logf(globals.LLError, "error: %v", err)
		return 1
	}

	var presets *config.Presets
	if *presetFile != "" {
		presets, err = config.Load(*presetFile)
		if err != nil {
			g.Logf(globals.LLError, "error: %v", err)
			return 1
		}
	}
	if presets != nil {
		scriptTokens, err = presets.Expand(scriptTokens)
		if err != nil {
			g.Logf(globals.LLError, "error: %v", err)
			return 1
		}
	}

	var inputs codec.List
	var outSpec *streamSpec
	for i := range specs {
		s := &specs[i]
		if s.isOutput {
			outSpec = s
			continue
		}
		c, err := openStream(*s, codec.ModeRead)
		if err != nil {
			g.Logf(globals.LLOpenError, "error: %v", err)
			return 1
		}
		if *forceInteractive {
			c.Hints |= codec.Interactive
		}
		if *disableInteractive {
			c.Hints &^= codec.Interactive
		}
		inputs.Append(c)
	}
	if inputs.Head == nil {
		g.Logf(globals.LLError, "error: no input stream specified")
		return 1
	}

	var out *codec.Codec
	if outSpec != nil {
		out, err = openStream(*outSpec, codec.ModeWrite)
	} else {
		out, err = openStream(streamSpec{null: true, channels: inputs.Head.Channels, rate: inputs.Head.FS}, codec.ModeWrite)
	}
	if err != nil {
		g.Logf(globals.LLOpenError, "error: %v", err)
		return 1
	}
	defer func() {
		if out.Destroy != nil {
			out.Destroy()
		}
	}()

	force := dither.Auto
	switch {
	case *forceDither:
		force = dither.On
	case *disableDither:
		force = dither.Off
	}

	opt := engine.Options{
		Tokens:      scriptTokens,
		Dir:         ".",
		BlockFrames: *blockFrames,
		ReadBlocks:  codec.DefaultInputRatio,
		WriteBlocks: codec.DefaultOutputRatio,
		Dither:           force,
		DitherPrec:       16,
		RequireEOF:       *requireEOF,
		NoDrainOnRebuild: *noDrainOnRebuild,
		Interactive:      *forceInteractive,
	}
	if *plotMag || *plotPhase {
		opt.PlotOut = os.Stdout
		opt.PlotPhase = *plotPhase
	}

	en := engine.New(g, opt)
	if err := en.Run(&inputs, out); err != nil {
		g.Logf(globals.LLError, "error: %v", err)
		return 1
	}
	return 0
}

// parseStreams scans the positional arguments for stream prefixes
// (-t/-e/-B/-L/-N/-r/-c/-R/-n/-o), each introducing one stream until
// the next prefix or a bare path token ends it, and returns the parsed
// streams plus the remaining tokens as the effect-chain script.
func parseStreams(args []string) ([]streamSpec, []string, error) {
	var specs []streamSpec
	cur := streamSpec{endian: codec.EndianDefault}
	haveCur := false
	i := 0
	flush := func() {
		if haveCur {
			specs = append(specs, cur)
		}
		cur = streamSpec{endian: codec.EndianDefault}
		haveCur = false
	}
	for i < len(args) {
		a := args[i]
		switch a {
		case "-o":
			flush()
			cur.isOutput = true
			haveCur = true
			i++
		case "-t":
			haveCur = true
			cur.typ = args[i+1]
			i += 2
		case "-e":
			haveCur = true
			cur.enc = args[i+1]
			i += 2
		case "-B":
			haveCur = true
			cur.endian = codec.EndianBig
			i++
		case "-L":
			haveCur = true
			cur.endian = codec.EndianLittle
			i++
		case "-N":
			haveCur = true
			cur.endian = codec.EndianNative
			i++
		case "-r":
			haveCur = true
			v, err := parseRate(args[i+1])
			if err != nil {
				return nil, nil, err
			}
			cur.rate = v
			i += 2
		case "-c":
			haveCur = true
			v, err := strconv.Atoi(args[i+1])
			if err != nil {
				return nil, nil, fmt.Errorf("bad -c value %q", args[i+1])
			}
			cur.channels = v
			i += 2
		case "-R":
			haveCur = true
			v, err := strconv.Atoi(args[i+1])
			if err != nil {
				return nil, nil, fmt.Errorf("bad -R value %q", args[i+1])
			}
			cur.ratio = v
			i += 2
		case "-n":
			haveCur = true
			cur.null = true
			i++
		default:
			if haveCur && cur.path == "" && !strings.HasPrefix(a, "-") {
				cur.path = a
				flush()
				i++
				continue
			}
			// First non-stream token ends stream scanning; everything
			// from here is the effect-chain script.
			flush()
			return specs, args[i:], nil
		}
	}
	flush()
	return specs, nil, nil
}

func parseRate(s string) (int, error) {
	mult := 1
	if strings.HasSuffix(s, "k") {
		mult = 1000
		s = s[:len(s)-1]
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad rate %q", s)
	}
	return v * mult, nil
}

func openStream(s streamSpec, mode codec.Mode) (*codec.Codec, error) {
	p := codec.Params{
		Path: s.path, Type: s.typ, Enc: s.enc, FS: s.rate, Channels: s.channels,
		Endian: s.endian, Mode: mode, BufRatio: s.ratio,
	}
	if p.FS == 0 {
		p.FS = 44100
	}
	if p.Channels == 0 {
		p.Channels = 2
	}
	typ := s.typ
	switch {
	case s.null:
		typ = "null"
	case typ == "":
		typ = "pcm"
	}
	switch typ {
	case "null":
		return codec.OpenNull(p)
	case "sgen":
		return codec.OpenSgen(p)
	case "portaudio":
		return codec.OpenPortaudio(p)
	default:
		return codec.OpenPCM(p)
	}
}
