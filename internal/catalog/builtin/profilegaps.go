// Package builtin provides the default ruleset compiled into the engine.
//
// The profile-gap ruleset needs no external access: it reads the last
// persisted profile snapshot, proposes a task for every gap it finds, and
// keeps a small set of recurring engagement and content tasks on the board
// regardless of profile state.
package builtin

import (
	"context"

	"github.com/localift/engage/internal/catalog/sdk"
)

// Name is the registry name of the builtin ruleset.
const Name = "profile-gaps"

// Completeness targets the gap rules test against.
const (
	photoTarget    = 5
	categoryTarget = 2
	reviewTarget   = 10
)

// ProfileGaps is the default profile-gap ruleset.
type ProfileGaps struct{}

// New creates the builtin profile-gap ruleset.
func New() *ProfileGaps {
	return &ProfileGaps{}
}

// Name returns the registry name.
func (r *ProfileGaps) Name() string {
	return Name
}

// Resolve walks the rule catalog in priority order and proposes every rule
// that applies to the snapshot, skipping definitions the location already
// completed or excluded this month. The snapshot passes through unchanged
// since the builtin ruleset has no external vantage point to refresh it from.
func (r *ProfileGaps) Resolve(ctx context.Context, input sdk.ResolveInput) (sdk.ResolveOutput, error) {
	done := make(map[string]struct{}, len(input.CompletedIDs)+len(input.ExcludedIDs))
	for _, id := range input.CompletedIDs {
		done[id] = struct{}{}
	}
	for _, id := range input.ExcludedIDs {
		done[id] = struct{}{}
	}

	snapshot := input.Snapshot
	candidates := make([]sdk.Candidate, 0, len(catalog))
	for _, rule := range catalog {
		if _, skip := done[rule.candidate.DefinitionID]; skip {
			continue
		}
		if !rule.applies(snapshot) {
			continue
		}
		candidates = append(candidates, rule.candidate)
	}

	return sdk.ResolveOutput{
		Candidates: candidates,
		Snapshot:   snapshot,
	}, nil
}

type rule struct {
	candidate sdk.Candidate
	applies   func(s sdk.ProfileSnapshot) bool
}

func always(sdk.ProfileSnapshot) bool { return true }

// catalog lists every definition the builtin ruleset can propose, ordered by
// priority. Resolve preserves this order, so it is also the board order.
var catalog = []rule{
	{
		candidate: sdk.Candidate{
			DefinitionID:  "add-phone-number",
			Title:         "Add a phone number",
			Description:   "Customers call before they visit. Add a primary phone number so calls route to your business.",
			Category:      "profile",
			Type:          "profile_update",
			Impact:        "high",
			Priority:      "critical",
			EstimatedTime: "5 min",
			Points:        20,
		},
		applies: func(s sdk.ProfileSnapshot) bool { return !s.HasPhone },
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "add-website-link",
			Title:         "Link your website",
			Description:   "Profiles with a website link convert searches into visits. Add your site or a booking page.",
			Category:      "profile",
			Type:          "profile_update",
			Impact:        "high",
			Priority:      "critical",
			EstimatedTime: "5 min",
			Points:        20,
		},
		applies: func(s sdk.ProfileSnapshot) bool { return !s.HasWebsite },
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "respond-to-reviews",
			Title:         "Respond to your open reviews",
			Description:   "Every review without a reply is a customer left hanging. Respond to all outstanding reviews.",
			Category:      "reviews",
			Type:          "engagement",
			Impact:        "high",
			Priority:      "critical",
			EstimatedTime: "20 min",
			Points:        25,
		},
		applies: func(s sdk.ProfileSnapshot) bool { return s.UnrepliedReviews > 0 },
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "set-business-hours",
			Title:         "Set your business hours",
			Description:   "Missing hours make customers assume you are closed. Publish your regular opening hours.",
			Category:      "profile",
			Type:          "profile_update",
			Impact:        "high",
			Priority:      "high",
			EstimatedTime: "10 min",
			Points:        20,
		},
		applies: func(s sdk.ProfileSnapshot) bool { return !s.HasHours },
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "write-business-description",
			Title:         "Write a business description",
			Description:   "Describe what you do, who you serve, and what makes you different, in 750 characters or less.",
			Category:      "profile",
			Type:          "profile_update",
			Impact:        "medium",
			Priority:      "high",
			EstimatedTime: "15 min",
			Points:        25,
		},
		applies: func(s sdk.ProfileSnapshot) bool { return !s.HasDescription },
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "upload-business-photos",
			Title:         "Upload photos of your business",
			Description:   "Add at least five photos covering your storefront, interior, and work. Profiles with photos get more requests.",
			Category:      "photos",
			Type:          "content",
			Impact:        "high",
			Priority:      "high",
			EstimatedTime: "15 min",
			Points:        25,
		},
		applies: func(s sdk.ProfileSnapshot) bool { return s.PhotoCount < photoTarget },
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "add-business-categories",
			Title:         "Add a secondary category",
			Description:   "A second category widens the searches you appear in. Pick the closest match for your other services.",
			Category:      "profile",
			Type:          "profile_update",
			Impact:        "medium",
			Priority:      "medium",
			EstimatedTime: "5 min",
			Points:        15,
		},
		applies: func(s sdk.ProfileSnapshot) bool { return len(s.Categories) < categoryTarget },
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "ask-for-reviews",
			Title:         "Ask recent customers for reviews",
			Description:   "Send your review link to customers you served this week. Steady reviews beat occasional bursts.",
			Category:      "reviews",
			Type:          "engagement",
			Impact:        "medium",
			Priority:      "medium",
			EstimatedTime: "10 min",
			Points:        20,
		},
		applies: func(s sdk.ProfileSnapshot) bool { return s.ReviewCount < reviewTarget },
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "create-weekly-post",
			Title:         "Publish a post this week",
			Description:   "Share an offer, update, or recent job. Fresh posts keep your profile active in search.",
			Category:      "posts",
			Type:          "content",
			Impact:        "medium",
			Priority:      "medium",
			EstimatedTime: "20 min",
			Points:        20,
		},
		applies: always,
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "reply-to-messages",
			Title:         "Reply to customer messages",
			Description:   "Check your inbox and clear any waiting messages. Fast replies keep messaging enabled.",
			Category:      "messaging",
			Type:          "engagement",
			Impact:        "medium",
			Priority:      "low",
			EstimatedTime: "15 min",
			Points:        15,
		},
		applies: always,
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "answer-customer-questions",
			Title:         "Answer new customer questions",
			Description:   "Review the questions section and answer anything new. Unanswered questions get filled in by strangers.",
			Category:      "qa",
			Type:          "engagement",
			Impact:        "medium",
			Priority:      "low",
			EstimatedTime: "15 min",
			Points:        15,
		},
		applies: always,
	},
	{
		candidate: sdk.Candidate{
			DefinitionID:  "record-video-tour",
			Title:         "Record a short video tour",
			Description:   "A 30 second walkthrough shows customers what to expect. Film it on your phone and upload it.",
			Category:      "videos",
			Type:          "content",
			Impact:        "high",
			Priority:      "low",
			EstimatedTime: "45 min",
			Points:        30,
		},
		applies: func(s sdk.ProfileSnapshot) bool { return s.PhotoCount >= photoTarget },
	},
}
