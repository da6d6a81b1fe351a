package action

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Any well-formed {"action": ..., "params": ...} object embedded in
// brace-free prose, fenced or not, must round-trip through Parse unchanged.
func TestParse_PropertyEmbeddedObjectRoundTrips(t *testing.T) {
	vocabulary := []string{
		Goto, Click, Type, Keypress, Select,
		Scroll, WaitFor, AssertText, Screenshot, Finish,
	}
	prose := rapid.StringMatching(`[A-Za-z0-9 .,:\n!?-]{0,40}`)

	rapid.Check(t, func(t *rapid.T) {
		name := rapid.SampledFrom(vocabulary).Draw(t, "name")
		params := rapid.MapOfN(
			rapid.StringMatching(`[a-z_]{1,10}`),
			rapid.StringMatching(`[A-Za-z0-9 /:.{}#'-]{0,20}`).AsAny(),
			0, 4,
		).Draw(t, "params")

		payload, err := json.Marshal(map[string]any{"action": name, "params": params})
		require.NoError(t, err)

		raw := prose.Draw(t, "lead") + string(payload) + prose.Draw(t, "trail")
		if rapid.Bool().Draw(t, "fenced") {
			tag := ""
			if rapid.Bool().Draw(t, "tagged") {
				tag = "json"
			}
			raw = "```" + tag + "\n" + raw + "\n```"
		}

		act, failure := Parse(raw)
		require.Nil(t, failure, "raw: %q", raw)
		require.Equal(t, name, act.Name)
		require.Len(t, act.Params, len(params))
		for k, v := range params {
			require.Equal(t, v, act.Params[k])
		}
	})
}
