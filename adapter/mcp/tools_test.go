package mcp

import (
	"testing"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localift/engage/internal/engagement/application"
)

func newTestServer(t *testing.T) *mcp.Server {
	t.Helper()

	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	deps := ToolDependencies{
		Service:           &application.Service{},
		DefaultLocationID: uuid.New(),
	}
	require.NoError(t, RegisterTools(srv, deps))

	return srv
}

func TestRegisterTools_ListTools(t *testing.T) {
	srv := newTestServer(t)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[string]bool, len(tools))
	for _, tool := range tools {
		if name, ok := tool["name"].(string); ok {
			names[name] = true
		}
	}

	for _, expected := range []string{
		"engage.health",
		"engage.version",
		"board.get",
		"tasks.refresh",
		"task.complete",
		"task.exclude",
	} {
		assert.True(t, names[expected], "%s tool should be registered", expected)
	}
}

func TestRegisterTools_RequiresService(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	err := RegisterTools(srv, ToolDependencies{})
	require.Error(t, err)
}

func TestResolveLocationID(t *testing.T) {
	configured := uuid.New()
	explicit := uuid.New()

	t.Run("explicit value wins", func(t *testing.T) {
		deps := ToolDependencies{DefaultLocationID: configured}
		id, err := resolveLocationID(deps, explicit.String())
		require.NoError(t, err)
		assert.Equal(t, explicit, id)
	})

	t.Run("falls back to the configured location", func(t *testing.T) {
		deps := ToolDependencies{DefaultLocationID: configured}
		id, err := resolveLocationID(deps, "")
		require.NoError(t, err)
		assert.Equal(t, configured, id)
	})

	t.Run("rejects a malformed value", func(t *testing.T) {
		deps := ToolDependencies{DefaultLocationID: configured}
		_, err := resolveLocationID(deps, "not-a-uuid")
		require.Error(t, err)
	})

	t.Run("errors when nothing is configured", func(t *testing.T) {
		_, err := resolveLocationID(ToolDependencies{}, "")
		require.Error(t, err)
	})
}
