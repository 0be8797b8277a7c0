// Package rulesetsdk provides the public SDK for building Engage ruleset
// plugins.
//
// This package re-exports the ruleset contract types so that third-party
// ruleset authors have a stable import path and never depend on internal
// packages directly.
//
// Example usage:
//
//	package main
//
//	import (
//		"context"
//
//		"github.com/localift/engage/pkg/rulesetsdk"
//	)
//
//	type seasonalRuleset struct{}
//
//	func (r *seasonalRuleset) Name() string { return "acme.seasonal" }
//
//	func (r *seasonalRuleset) Resolve(ctx context.Context, input rulesetsdk.ResolveInput) (rulesetsdk.ResolveOutput, error) {
//		candidates := []rulesetsdk.Candidate{{
//			DefinitionID: "publish-holiday-hours",
//			Title:        "Publish your holiday opening hours",
//			Category:     "profile",
//			Points:       20,
//		}}
//		return rulesetsdk.ResolveOutput{
//			Candidates: rulesetsdk.FilterExcluded(candidates, input.ExcludedIDs),
//			Snapshot:   input.Snapshot,
//		}, nil
//	}
//
//	func main() {
//		rulesetsdk.Serve(&seasonalRuleset{})
//	}
package rulesetsdk

import (
	"github.com/localift/engage/internal/catalog/sdk"
)

type (
	// Ruleset is the interface every ruleset plugin implements.
	Ruleset = sdk.Ruleset

	// LocationRef identifies the location being resolved for.
	LocationRef = sdk.LocationRef

	// ProfileSnapshot is the observed state of a business profile.
	ProfileSnapshot = sdk.ProfileSnapshot

	// ResolveInput is what the engine hands a ruleset.
	ResolveInput = sdk.ResolveInput

	// ResolveOutput is what a ruleset hands back.
	ResolveOutput = sdk.ResolveOutput

	// Candidate is a proposed task.
	Candidate = sdk.Candidate
)

// FilterExcluded drops candidates whose definition id appears in the
// exclusion list, preserving order.
var FilterExcluded = sdk.FilterExcluded
