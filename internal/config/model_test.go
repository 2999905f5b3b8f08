package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validChain() *Chain {
	return &Chain{
		Name:  "c",
		Start: "a",
		Components: []*Component{
			{Kind: "timer", Name: "a"},
			{Kind: "statsink", Name: "b"},
		},
		Connections: []*Connection{{From: "a", To: "b"}},
	}
}

func TestChainValidate(t *testing.T) {
	require.NoError(t, validChain().Validate())

	testCases := []struct {
		name    string
		mutate  func(c *Chain)
		wantErr string
	}{
		{"duplicate component", func(c *Chain) { c.Components[1].Name = "a" }, "defined twice"},
		{"missing start", func(c *Chain) { c.Start = "" }, "no start component"},
		{"unknown start", func(c *Chain) { c.Start = "zzz" }, "start component 'zzz'"},
		{"unknown endpoint", func(c *Chain) { c.Connections[0].To = "zzz" }, "undefined component 'zzz'"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := validChain()
			tc.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestModelMerge(t *testing.T) {
	m := &Model{}
	require.NoError(t, m.Merge(&Model{Chains: []*Chain{{Name: "one", Source: "a.hcl"}}}))
	require.NoError(t, m.Merge(nil))
	require.NoError(t, m.Merge(&Model{Chains: []*Chain{{Name: "two", Source: "b.yaml"}}}))
	require.Len(t, m.Chains, 2)
	require.NotNil(t, m.Chain("two"))
	require.Nil(t, m.Chain("three"))

	err := m.Merge(&Model{Chains: []*Chain{{Name: "one", Source: "c.hcl"}}})
	require.ErrorContains(t, err, "defined twice (a.hcl and c.hcl)")
}
