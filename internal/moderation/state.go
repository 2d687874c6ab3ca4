package moderation

import "assetmarket/internal/domain"

// State is the moderation state of an asset
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateFeatured State = "featured"
)

// Action is an admin moderation transition
type Action string

const (
	ActionApprove       Action = "approve"
	ActionReject        Action = "reject"
	ActionToggleFeature Action = "feature"
)

// Policy settles the two behaviors the moderation rules leave open
type Policy struct {
	// RejectClearsFeatured clears the featured flag when an asset is rejected.
	// When false the flag is left as is and resurfaces on re-approval.
	RejectClearsFeatured bool
	// FeatureRequiresApproval refuses to toggle featured on a pending asset.
	FeatureRequiresApproval bool
}

// DefaultPolicy clears featured on reject and refuses to feature pending assets
func DefaultPolicy() Policy {
	return Policy{RejectClearsFeatured: true, FeatureRequiresApproval: true}
}

// Flags are the two persisted moderation flags
type Flags struct {
	Approved bool
	Featured bool
}

// FlagsOf reads the flags of an asset
func FlagsOf(a *domain.Asset) Flags {
	return Flags{Approved: a.IsApproved, Featured: a.IsFeatured}
}

// State derives the moderation state. A featured flag on an unapproved asset
// has no effect, so it reads as pending.
func (f Flags) State() State {
	switch {
	case !f.Approved:
		return StatePending
	case f.Featured:
		return StateFeatured
	default:
		return StateApproved
	}
}

// Apply computes the flags after action under policy
func Apply(f Flags, action Action, policy Policy) (Flags, error) {
	switch action {
	case ActionApprove:
		f.Approved = true
	case ActionReject:
		f.Approved = false
		if policy.RejectClearsFeatured {
			f.Featured = false
		}
	case ActionToggleFeature:
		if policy.FeatureRequiresApproval && !f.Approved {
			return f, domain.Conflict("Asset must be approved before it can be featured")
		}
		f.Featured = !f.Featured
	default:
		return f, domain.Validation("Unknown moderation action")
	}
	return f, nil
}
