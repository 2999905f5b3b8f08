package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/mediachain/internal/component"
)

type goodArgs struct {
	Rate  int    `cty:"rate"`
	Label string `cty:"label"`
}

type untaggedArgs struct {
	Rate int
}

type badTypeArgs struct {
	Ch chan int `cty:"ch"`
}

func newFn(context.Context, string, any, Deps) (component.Component, error) {
	return component.NewBase("x"), nil
}

type testModule struct {
	kind string
	rc   *RegisteredComponent
}

func (m testModule) Register(r *Registry) { r.RegisterComponent(m.kind, m.rc) }

func TestRegistry(t *testing.T) {
	r := New()
	testModule{"b", &RegisteredComponent{NewArgs: func() any { return &goodArgs{} }, New: newFn}}.Register(r)
	testModule{"a", &RegisteredComponent{NewArgs: func() any { return &struct{}{} }, New: newFn}}.Register(r)

	require.Equal(t, []string{"a", "b"}, r.Kinds())
	_, ok := r.Component("a")
	require.True(t, ok)
	_, ok = r.Component("zzz")
	require.False(t, ok)
	require.NoError(t, r.Validate(context.Background()))

	require.Panics(t, func() {
		r.RegisterComponent("a", &RegisteredComponent{})
	})
}

func TestRegistryValidate_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		rc      *RegisteredComponent
		wantErr string
	}{
		{"no factory", &RegisteredComponent{NewArgs: func() any { return &goodArgs{} }}, "no factory"},
		{"no args", &RegisteredComponent{New: newFn}, "no argument constructor"},
		{"not a pointer", &RegisteredComponent{New: newFn, NewArgs: func() any { return goodArgs{} }}, "pointer to a struct"},
		{"untagged", &RegisteredComponent{New: newFn, NewArgs: func() any { return &untaggedArgs{} }}, "field 'Rate' has no cty tag"},
		{"bad type", &RegisteredComponent{New: newFn, NewArgs: func() any { return &badTypeArgs{} }}, "could not imply cty type"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := New()
			r.RegisterComponent("k", tc.rc)
			err := r.Validate(context.Background())
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}
