// Package netrpc carries Ruleset calls between the engine and external
// ruleset binaries over HashiCorp go-plugin's net/rpc transport.
//
// The contract types in the sdk package cross the process boundary with gob
// encoding, so no generated code is involved. Plugin authors should use
// pkg/rulesetsdk rather than importing this package directly.
package netrpc

import (
	"context"
	"net/rpc"

	"github.com/hashicorp/go-plugin"

	"github.com/localift/engage/internal/catalog/sdk"
)

// PluginName is the dispense key for ruleset plugins.
const PluginName = "ruleset"

// Handshake is the shared handshake between the engine and ruleset binaries.
// The magic cookie lets go-plugin reject binaries that were not built as
// ruleset plugins; it is a sanity check, not a security boundary.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "ENGAGE_RULESET_PLUGIN",
	MagicCookieValue: "engage-ruleset-v1",
}

// PluginMap returns the plugin set for a ruleset binary. The engine passes a
// nil impl since the host side only ever uses the client half.
func PluginMap(impl sdk.Ruleset) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginName: &RulesetPlugin{Impl: impl},
	}
}

// RulesetPlugin adapts a Ruleset to go-plugin's net/rpc protocol.
type RulesetPlugin struct {
	// Impl is the ruleset served by the plugin binary. Nil on the host side.
	Impl sdk.Ruleset
}

// Server returns the RPC server wrapping the plugin's ruleset.
func (p *RulesetPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &RulesetServer{Impl: p.Impl}, nil
}

// Client returns the host-side proxy speaking to a remote ruleset.
func (p *RulesetPlugin) Client(_ *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &RulesetClient{client: c}, nil
}

// RulesetClient is the host-side Ruleset proxy. Calls are forwarded to the
// plugin process over net/rpc.
type RulesetClient struct {
	client *rpc.Client
}

// Name asks the plugin for its registered name. An unreachable plugin yields
// an empty name.
func (c *RulesetClient) Name() string {
	var name string
	if err := c.client.Call("Plugin.Name", struct{}{}, &name); err != nil {
		return ""
	}
	return name
}

// Resolve forwards the resolve call to the plugin. net/rpc carries no
// deadline, so cancellation is honored on this side only: a canceled context
// abandons the in-flight call and returns ctx.Err().
func (c *RulesetClient) Resolve(ctx context.Context, input sdk.ResolveInput) (sdk.ResolveOutput, error) {
	var output sdk.ResolveOutput
	call := c.client.Go("Plugin.Resolve", input, &output, make(chan *rpc.Call, 1))

	select {
	case <-ctx.Done():
		return sdk.ResolveOutput{}, ctx.Err()
	case done := <-call.Done:
		if done.Error != nil {
			return sdk.ResolveOutput{}, done.Error
		}
		return output, nil
	}
}

// RulesetServer runs inside the plugin process and exposes the wrapped
// ruleset over net/rpc.
type RulesetServer struct {
	Impl sdk.Ruleset
}

// Name returns the wrapped ruleset's name.
func (s *RulesetServer) Name(_ struct{}, reply *string) error {
	*reply = s.Impl.Name()
	return nil
}

// Resolve runs the wrapped ruleset. The host's context does not cross the
// process boundary, so the plugin side resolves uncancelled.
func (s *RulesetServer) Resolve(input sdk.ResolveInput, reply *sdk.ResolveOutput) error {
	output, err := s.Impl.Resolve(context.Background(), input)
	if err != nil {
		return err
	}
	*reply = output
	return nil
}

var (
	_ plugin.Plugin = (*RulesetPlugin)(nil)
	_ sdk.Ruleset   = (*RulesetClient)(nil)
)
