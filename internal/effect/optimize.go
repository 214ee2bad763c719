package effect

import "github.com/doismellburning/dsp/internal/globals"

// Optimize runs the post-build peephole merge pass: for every effect
// with a non-nil Merge, scan forward absorbing matching-stream
// effects, transparently skipping (but not consuming) any candidate
// that isn't absorbed — whether because it has no Merge of its own, or
// because it has one but the anchor declined to merge it — as long as
// it's OptReorderable or itself has a Merge, and stopping at the first
// effect that is neither mergeable nor reorderable, or at any
// stream-change boundary. This mirrors effects_chain_optimize exactly:
// a skipped effect is revisited as its own scan anchor, not removed.
func Optimize(c *Chain, g *globals.Settings) {
	merged := 0
	for anchor := c.Head; anchor != nil; anchor = anchor.Next {
		if anchor.Merge == nil {
			continue
		}
		cur := anchor
		for {
			cand := cur.Next
			if cand == nil {
				break
			}
			if !sameStream(anchor, cand) {
				break
			}
			if cand.Merge != nil && anchor.Merge(anchor, cand) {
				removeAfter(c, cur)
				cand.DestroyOne()
				merged++
				continue
			}
			if cand.Merge == nil && !cand.HasFlag(OptReorderable) {
				break
			}
			cur = cand
		}
	}
	if g != nil && merged > 0 {
		g.Logf(globals.LLVerbose, "effects chain: merged %d effect(s)", merged)
	}
}

func sameStream(anchor, cand *Effect) bool {
	return anchor.IStream.Equal(cand.IStream) && anchor.OStream.Equal(cand.OStream)
}

// removeAfter removes cur.Next from the chain, updating Tail if needed.
func removeAfter(c *Chain, cur *Effect) {
	removed := cur.Next
	cur.Next = removed.Next
	if c.Tail == removed {
		c.Tail = cur
	}
}
