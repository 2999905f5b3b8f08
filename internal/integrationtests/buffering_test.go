package integrationtests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/mediachain/internal/media"
)

// TestBuffering_ReleasesInPlaybackOrder drives a media buffer from a
// downstream playback clock. Nothing is stored before the first playback
// time is known; afterwards each block is released one interval ahead of
// the clock.
func TestBuffering_ReleasesInPlaybackOrder(t *testing.T) {
	// --- Arrange ---
	definition := `
chain "jitter" {
  start = "clock"

  component "timer" "clock" {
    arguments {
      interval_ms = 5
    }
  }
  component "tone" "src" {}
  component "buffer" "buf" {
    arguments {
      interval_ms = 20
    }
  }
  component "probe" "played" {}
  component "statsink" "device" {
    arguments {
      clock_ms = 20
    }
  }

  connection {
    from     = "clock"
    to       = "src"
  }
  connection {
    from     = "src"
    to       = "buf"
    feedback = true
  }
  connection {
    from     = "buf"
    to       = "played"
    feedback = true
  }
  connection {
    from     = "played"
    to       = "device"
    feedback = true
  }
}
`
	probes := newProbeModule()

	// --- Act ---
	result := runIntegrationTest(t, map[string]string{"jitter.hcl": definition}, 150*time.Millisecond, probes)

	// --- Assert ---
	require.NoError(t, result.Err)
	probe := probes.get(t, "played")

	received := probe.Received()
	require.GreaterOrEqual(t, len(received), 3)
	for i, msg := range received {
		mm, ok := msg.(media.MediaMessage)
		require.True(t, ok)
		assert.Equal(t, time.Duration(i+1)*20*time.Millisecond, mm.Timestamp(), "message %d", i)
	}

	calls := probe.FeedbackCalls()
	require.NotEmpty(t, calls)
	for i, call := range calls {
		assert.True(t, call.HasPlayback)
		assert.Equal(t, time.Duration(i)*20*time.Millisecond, call.PlaybackTime)
	}
}
