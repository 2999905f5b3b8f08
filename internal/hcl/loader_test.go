package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/mediachain/internal/config"
	"github.com/zclconf/go-cty/cty"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

const conferenceHCL = `
chain "conference" {
  start = "clock"

  component "timer" "clock" {
    arguments {
      interval_ms = 20
    }
  }

  component "mixer" "mix" {
    arguments {
      sample_rate = 8000
      channels    = 1
      block_ms    = 20
      float       = true
    }
  }

  component "statsink" "out" {}

  connection {
    from = "clock"
    to   = "mix"
  }

  connection {
    from     = "mix"
    to       = "out"
    feedback = true
    types    = ["audio_raw"]
    subtypes = ["float32"]
  }
}
`

func TestLoader_Load(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"chains/conference.hcl": conferenceHCL,
		"chains/ignored.yaml":   "chains: []",
	})

	model, conv, err := NewLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, conv)
	require.Len(t, model.Chains, 1)

	got := model.Chains[0]
	require.Equal(t, filepath.Join(dir, "chains", "conference.hcl"), got.Source)

	want := &config.Chain{
		Name:  "conference",
		Start: "clock",
		Components: []*config.Component{
			{Kind: "timer", Name: "clock", Arguments: map[string]cty.Value{"interval_ms": cty.NumberIntVal(20)}},
			{Kind: "mixer", Name: "mix", Arguments: map[string]cty.Value{
				"sample_rate": cty.NumberIntVal(8000),
				"channels":    cty.NumberIntVal(1),
				"block_ms":    cty.NumberIntVal(20),
				"float":       cty.True,
			}},
			{Kind: "statsink", Name: "out"},
		},
		Connections: []*config.Connection{
			{From: "clock", To: "mix"},
			{From: "mix", To: "out", Feedback: true, Types: []string{"audio_raw"}, Subtypes: []string{"float32"}},
		},
		Source: got.Source,
	}
	ctyEqual := cmp.Comparer(func(a, b cty.Value) bool { return a.RawEquals(b) })
	if diff := cmp.Diff(want, got, ctyEqual); diff != "" {
		t.Errorf("chain mismatch (-want +got):\n%s", diff)
	}
}

func TestLoader_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"syntax", `chain "x" {`, "failed to parse"},
		{"unknown block", `pipeline "x" {}`, "failed to decode"},
		{"missing start", `chain "x" {}`, "failed to decode"},
		{"bad argument expression", `
chain "x" {
  start = "a"
  component "timer" "a" {
    arguments {
      interval_ms = var.interval
    }
  }
}`, "argument 'interval_ms'"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := writeFiles(t, map[string]string{"main.hcl": tc.content})
			_, _, err := NewLoader().Load(context.Background(), dir)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoader_DuplicateChainAcrossFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.hcl": `chain "x" { start = "a" }`,
		"b.hcl": `chain "x" { start = "b" }`,
	})
	_, _, err := NewLoader().Load(context.Background(), dir)
	require.ErrorContains(t, err, "chain 'x' defined twice")
}

func TestLoader_SingleFileAndMissingPath(t *testing.T) {
	dir := writeFiles(t, map[string]string{"one.hcl": `chain "x" { start = "a" }`})
	file := filepath.Join(dir, "one.hcl")

	model, _, err := NewLoader().Load(context.Background(), file, file, filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.Len(t, model.Chains, 1)
}
