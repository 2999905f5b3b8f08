package integrationtests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/mediachain/internal/chain"
)

// TestDefinitionErrors checks that broken definitions are rejected before
// any chain starts.
func TestDefinitionErrors(t *testing.T) {
	testCases := []struct {
		name       string
		definition string
		wantErr    error
		wantMsg    string
	}{
		{
			name: "feedback fork",
			definition: `
chain "fork" {
  start = "clock"
  component "timer" "clock" {}
  component "tone" "a" {}
  component "mixer" "mix" {}
  component "statsink" "p" {}
  component "statsink" "q" {}
  connection {
    from = "clock"
    to   = "a"
  }
  connection {
    from     = "a"
    to       = "mix"
    feedback = true
  }
  connection {
    from     = "mix"
    to       = "p"
    feedback = true
  }
  connection {
    from     = "mix"
    to       = "q"
    feedback = true
  }
}
`,
			wantErr: chain.ErrFeedbackMerge,
		},
		{
			name: "unreachable connection",
			definition: `
chain "island" {
  start = "clock"
  component "timer" "clock" {}
  component "tone" "a" {}
  component "statsink" "p" {}
  connection {
    from = "a"
    to   = "p"
  }
}
`,
			wantErr: chain.ErrUnusedConnection,
		},
		{
			name: "unknown argument",
			definition: `
chain "typo" {
  start = "clock"
  component "timer" "clock" {
    arguments {
      intreval_ms = 20
    }
  }
}
`,
			wantMsg: "unsupported argument(s): intreval_ms",
		},
		{
			name: "unknown kind",
			definition: `
chain "alien" {
  start = "clock"
  component "theremin" "clock" {}
}
`,
			wantMsg: "unknown component kind 'theremin'",
		},
		{
			name: "unknown mask name",
			definition: `
chain "masks" {
  start = "clock"
  component "timer" "clock" {}
  component "statsink" "p" {}
  connection {
    from  = "clock"
    to    = "p"
    types = ["smell"]
  }
}
`,
			wantMsg: `unknown message type "smell"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := runIntegrationTest(t, map[string]string{"main.hcl": tc.definition}, time.Second)

			require.Error(t, result.Err)
			if tc.wantErr != nil {
				require.ErrorIs(t, result.Err, tc.wantErr)
			}
			if tc.wantMsg != "" {
				require.ErrorContains(t, result.Err, tc.wantMsg)
			}
			require.NotContains(t, result.LogOutput, "Chain started.")
		})
	}
}
