package session

import (
	"github.com/hrygo/bazaarbot/internal/profile"
)

const (
	DefaultWindowMinutes = 120
	DefaultRetentionDays = 7
	DefaultMaxTurns      = 10
)

// Policy bounds how much history is mixed into each model call.
type Policy struct {
	// WindowMinutes is the recency cutoff for loaded turns.
	WindowMinutes int `json:"windowMinutes"`
	// RetentionDays is how long a conversation stays current.
	RetentionDays int `json:"retentionDays"`
	// MaxTurns caps loaded user+assistant pairs.
	MaxTurns int `json:"maxTurns"`
}

// Overrides replace individual policy fields when set.
type Overrides struct {
	WindowMinutes *int `json:"windowMinutes,omitempty"`
	RetentionDays *int `json:"retentionDays,omitempty"`
	MaxTurns      *int `json:"maxTurns,omitempty"`
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		WindowMinutes: DefaultWindowMinutes,
		RetentionDays: DefaultRetentionDays,
		MaxTurns:      DefaultMaxTurns,
	}
}

// PolicyFromProfile reads the policy from configuration, keeping defaults for unset values.
func PolicyFromProfile(p *profile.Profile) Policy {
	policy := DefaultPolicy()
	if p == nil {
		return policy
	}
	if p.ContextWindowMinutes > 0 {
		policy.WindowMinutes = p.ContextWindowMinutes
	}
	if p.ContextRetentionDays > 0 {
		policy.RetentionDays = p.ContextRetentionDays
	}
	if p.ContextMaxTurns > 0 {
		policy.MaxTurns = p.ContextMaxTurns
	}
	return policy
}

// Apply returns the policy with overrides applied.
func (p Policy) Apply(o *Overrides) Policy {
	if o == nil {
		return p
	}
	if o.WindowMinutes != nil {
		p.WindowMinutes = *o.WindowMinutes
	}
	if o.RetentionDays != nil {
		p.RetentionDays = *o.RetentionDays
	}
	if o.MaxTurns != nil {
		p.MaxTurns = *o.MaxTurns
	}
	return p
}
