package netrpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localift/engage/internal/catalog/sdk"
)

type fakeRuleset struct {
	output sdk.ResolveOutput
	err    error
	input  sdk.ResolveInput
}

func (f *fakeRuleset) Name() string { return "fake" }

func (f *fakeRuleset) Resolve(_ context.Context, input sdk.ResolveInput) (sdk.ResolveOutput, error) {
	f.input = input
	return f.output, f.err
}

func TestRulesetServer(t *testing.T) {
	t.Run("Name reports the wrapped ruleset", func(t *testing.T) {
		server := &RulesetServer{Impl: &fakeRuleset{}}

		var name string
		require.NoError(t, server.Name(struct{}{}, &name))
		assert.Equal(t, "fake", name)
	})

	t.Run("Resolve forwards input and output", func(t *testing.T) {
		impl := &fakeRuleset{
			output: sdk.ResolveOutput{
				Candidates: []sdk.Candidate{{DefinitionID: "respond-to-reviews", Title: "Respond", Points: 25}},
			},
		}
		server := &RulesetServer{Impl: impl}
		input := sdk.ResolveInput{ExcludedIDs: []string{"create-weekly-post"}}

		var reply sdk.ResolveOutput
		require.NoError(t, server.Resolve(input, &reply))

		assert.Equal(t, impl.output, reply)
		assert.Equal(t, input, impl.input)
	})

	t.Run("Resolve surfaces ruleset errors", func(t *testing.T) {
		server := &RulesetServer{Impl: &fakeRuleset{err: errors.New("profile unavailable")}}

		var reply sdk.ResolveOutput
		err := server.Resolve(sdk.ResolveInput{}, &reply)

		require.Error(t, err)
		assert.Empty(t, reply.Candidates)
	})
}

func TestRulesetPlugin(t *testing.T) {
	t.Run("Server wraps the impl", func(t *testing.T) {
		impl := &fakeRuleset{}
		p := &RulesetPlugin{Impl: impl}

		raw, err := p.Server(nil)

		require.NoError(t, err)
		server, ok := raw.(*RulesetServer)
		require.True(t, ok)
		assert.Same(t, impl, server.Impl)
	})

	t.Run("PluginMap serves under the ruleset key", func(t *testing.T) {
		impl := &fakeRuleset{}

		m := PluginMap(impl)

		require.Contains(t, m, PluginName)
		rulesetPlugin, ok := m[PluginName].(*RulesetPlugin)
		require.True(t, ok)
		assert.Same(t, impl, rulesetPlugin.Impl)
	})
}
