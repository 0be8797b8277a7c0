package rulesetsdk

import (
	"github.com/hashicorp/go-plugin"

	"github.com/localift/engage/internal/catalog/netrpc"
)

// Serve starts the plugin server for a ruleset binary. It should be called
// from the main function of the plugin and blocks until the engine
// disconnects.
//
// Example:
//
//	func main() {
//		rulesetsdk.Serve(&myRuleset{})
//	}
func Serve(ruleset Ruleset) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: netrpc.Handshake,
		Plugins:         netrpc.PluginMap(ruleset),
	})
}
