package effect

import (
	"fmt"
	"io"
)

// Plot emits a gnuplot script for the chain: a header, then each
// effect's Plot(idx) lines in order, inserting a fresh per-channel
// Ht<k>_<idx> accumulator reset at every PlotMix boundary, and a
// trailing plot command for magnitude (and, if phase is true, phase)
// curves per channel. Every effect must implement Plot; a missing one
// is a hard error here (plot mode only), per the design notes.
func Plot(c *Chain, w io.Writer, phase bool) error {
	fmt.Fprintln(w, "set xlabel 'frequency (Hz)'")
	fmt.Fprintln(w, "set logscale x")
	fmt.Fprintln(w, "set grid")

	channels := c.IStream().Channels
	for k := 0; k < channels; k++ {
		fmt.Fprintf(w, "Ht%d_0(f) = 1\n", k)
	}
	accum := 0
	idx := 0
	for e := c.Head; e != nil; e = e.Next {
		if e.Plot == nil {
			return fmt.Errorf("plot: effect %q has no plot method", e.Name)
		}
		for _, line := range e.Plot(idx) {
			fmt.Fprintln(w, line)
		}
		idx++
		if e.HasFlag(PlotMix) {
			accum = idx
			channels = e.OStream.Channels
			for k := 0; k < channels; k++ {
				fmt.Fprintf(w, "Ht%d_%d(f) = 1\n", k, accum)
			}
		}
	}
	fmt.Fprint(w, "plot ")
	for k := 0; k < channels; k++ {
		if k > 0 {
			fmt.Fprint(w, ", ")
		}
		fmt.Fprintf(w, "20*log10(cabs(Ht%d_%d(x))) title 'channel %d magnitude'", k, idx-1, k)
	}
	fmt.Fprintln(w)
	if phase {
		fmt.Fprint(w, "plot ")
		for k := 0; k < channels; k++ {
			if k > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "(180/pi)*arg(Ht%d_%d(x)) title 'channel %d phase'", k, idx-1, k)
		}
		fmt.Fprintln(w)
	}
	return nil
}
