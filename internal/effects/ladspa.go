package effects

import (
	"fmt"

	"github.com/doismellburning/dsp/internal/effect"
)

// ladspa_host is an explicit catalogue entry (§6) for an out-of-scope
// feature: LADSPA plugin hosting is not implemented (§1 non-goals).
// Rather than silently dropping the token, the lookup succeeds and the
// init fails with a descriptive config error naming the requested
// plugin, so "!ladspa_host ..." is still a tolerated failure per the
// "!" token and the catalogue surface is preserved.
func init() {
	register("ladspa_host", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		plugin := "<none>"
		if len(args) > 0 {
			plugin = args[0]
		}
		return nil, len(args), fmt.Errorf("ladspa_host: plugin hosting not available in this build (plugin=%s)", plugin)
	})
}
