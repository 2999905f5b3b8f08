package integrationtests

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/mediachain/internal/app"
	"github.com/vk/mediachain/internal/component"
	"github.com/vk/mediachain/internal/registry"
	"github.com/vk/mediachain/internal/testutil"
)

// runResult holds the outcome of one app run.
type runResult struct {
	App       *app.App
	LogOutput string
	Err       error
}

// runIntegrationTest writes files into a temporary directory, builds an app
// from it with the core modules plus extra, and runs it for d.
func runIntegrationTest(t *testing.T, files map[string]string, d time.Duration, extra ...registry.Module) *runResult {
	t.Helper()

	dir := app.WriteDefinitions(t, files)
	logs := &testutil.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("MEDIACHAIN_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	cfg, err := app.NewConfig(app.Config{ConfigPath: dir, LogLevel: "debug", LogFormat: "text", RunDuration: d})
	require.NoError(t, err)

	a, err := app.NewApp(logs, cfg, append(app.CoreModules(), extra...)...)
	if err != nil {
		return &runResult{LogOutput: logs.String(), Err: err}
	}

	ctx, cancel := context.WithTimeout(context.Background(), d+10*time.Second)
	defer cancel()
	err = a.Run(ctx)
	return &runResult{App: a, LogOutput: logs.String(), Err: err}
}

// probeModule registers the "probe" kind: a testutil.Relay that keeps what
// it receives and forwards it on. Created probes are kept by name.
type probeModule struct {
	mu     sync.Mutex
	probes map[string]*testutil.Relay
}

type probeArgs struct{}

func newProbeModule() *probeModule {
	return &probeModule{probes: make(map[string]*testutil.Relay)}
}

func (p *probeModule) Register(r *registry.Registry) {
	r.RegisterComponent("probe", &registry.RegisteredComponent{
		NewArgs: func() any { return &probeArgs{} },
		New: func(_ context.Context, name string, _ any, _ registry.Deps) (component.Component, error) {
			relay := testutil.NewRelay(name, nil)
			p.mu.Lock()
			p.probes[name] = relay
			p.mu.Unlock()
			return relay, nil
		},
		Description: "records and forwards messages",
	})
}

func (p *probeModule) get(t *testing.T, name string) *testutil.Relay {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	relay, ok := p.probes[name]
	require.True(t, ok, "probe %q was not created", name)
	return relay
}
