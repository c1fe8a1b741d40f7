// Package catalog holds the static reward, achievement and seed spot lists.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

// Achievement rule kinds.
const (
	RuleCheckins       = "checkins"
	RuleDistinctSpots  = "distinct_spots"
	RuleReferrals      = "referrals"
	RuleLifetimePoints = "lifetime_points"
	RuleStreak         = "streak"
	RuleReviews        = "reviews"
)

var ruleKinds = map[string]bool{
	RuleCheckins:       true,
	RuleDistinctSpots:  true,
	RuleReferrals:      true,
	RuleLifetimePoints: true,
	RuleStreak:         true,
	RuleReviews:        true,
}

type Reward struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Cost        int64  `yaml:"cost" json:"cost"`
	Category    string `yaml:"category" json:"category"`
	ExpiryDays  int    `yaml:"expiry_days" json:"expiry_days,omitempty"` // 0 = redemption.expiry_days setting
	Active      *bool  `yaml:"active" json:"-"`
}

// IsActive reports whether the reward can be redeemed. Rewards are active unless disabled.
func (r Reward) IsActive() bool { return r.Active == nil || *r.Active }

type Rule struct {
	Kind      string `yaml:"kind" json:"kind"`
	Threshold int64  `yaml:"threshold" json:"threshold"`
}

type Achievement struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
	Points      int64  `yaml:"points" json:"points"`
	Rule        Rule   `yaml:"rule" json:"rule"`
}

// Spot is a tourist spot seeded into an empty store.
type Spot struct {
	Name          string  `yaml:"name"`
	Description   string  `yaml:"description"`
	Category      string  `yaml:"category"`
	Address       string  `yaml:"address"`
	Latitude      float64 `yaml:"latitude"`
	Longitude     float64 `yaml:"longitude"`
	CheckinPoints int64   `yaml:"checkin_points"`
}

type Catalog struct {
	Rewards      []Reward      `yaml:"rewards"`
	Achievements []Achievement `yaml:"achievements"`
	Spots        []Spot        `yaml:"spots"`
}

// Default parses the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(embedded)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	seen := map[string]bool{}
	for _, r := range c.Rewards {
		if r.ID == "" {
			return nil, fmt.Errorf("reward %q: id is required", r.Name)
		}
		if seen["reward:"+r.ID] {
			return nil, fmt.Errorf("reward %q: duplicate id", r.ID)
		}
		seen["reward:"+r.ID] = true
		if r.Cost <= 0 {
			return nil, fmt.Errorf("reward %q: cost must be positive", r.ID)
		}
	}
	for _, a := range c.Achievements {
		if a.ID == "" {
			return nil, fmt.Errorf("achievement %q: id is required", a.Name)
		}
		if seen["achievement:"+a.ID] {
			return nil, fmt.Errorf("achievement %q: duplicate id", a.ID)
		}
		seen["achievement:"+a.ID] = true
		if !ruleKinds[a.Rule.Kind] {
			return nil, fmt.Errorf("achievement %q: unknown rule kind %q", a.ID, a.Rule.Kind)
		}
		if a.Rule.Threshold <= 0 {
			return nil, fmt.Errorf("achievement %q: threshold must be positive", a.ID)
		}
	}
	return &c, nil
}

// Reward returns the reward with id.
func (c *Catalog) Reward(id string) (Reward, bool) {
	for _, r := range c.Rewards {
		if r.ID == id {
			return r, true
		}
	}
	return Reward{}, false
}

// ActiveRewards returns the redeemable rewards in catalog order.
func (c *Catalog) ActiveRewards() []Reward {
	out := make([]Reward, 0, len(c.Rewards))
	for _, r := range c.Rewards {
		if r.IsActive() {
			out = append(out, r)
		}
	}
	return out
}

func (c *Catalog) Achievement(id string) (Achievement, bool) {
	for _, a := range c.Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}
