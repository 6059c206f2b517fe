// Package config loads tunable coalesce/growth policy for a pool from
// YAML, following the same LoadConfig/struct-tag shape used elsewhere
// in the corpus for process configuration.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Policy holds the coalesce and growth thresholds that the Pool
// Coordinator's policy guard evaluates. The zero value is not valid;
// use Default() to get spec-mandated defaults.
type Policy struct {
	// Align is the allocator alignment, in bytes. Every extent size is
	// a multiple of Align, floored at Align.
	Align int64 `yaml:"align"`

	// Growth is the capacity multiplier used when a pool must grow to
	// satisfy an allocation (additional_bytes defaults to
	// capacity*Growth when that exceeds the immediate need).
	Growth float64 `yaml:"growth"`

	// FragThresholdPct is the fragmentation percentage (see
	// Stats.FragmentationPct) above which the coalesce guard may fire.
	FragThresholdPct float64 `yaml:"frag_threshold_pct"`

	// MinBlocksToCoalesce is the minimum number of free blocks before
	// the coalesce guard may fire.
	MinBlocksToCoalesce int `yaml:"min_blocks_to_coalesce"`

	// MinFreesBetweenCoalesce is the minimum number of Free calls
	// since the last coalesce before the guard may fire again.
	MinFreesBetweenCoalesce int `yaml:"min_frees_between_coalesce"`
}

// Default returns the policy spec.md §4.3 mandates.
func Default() Policy {
	return Policy{
		Align:                   8,
		Growth:                  1.5,
		FragThresholdPct:        35.0,
		MinBlocksToCoalesce:     8,
		MinFreesBetweenCoalesce: 10,
	}
}

// Validate rejects a policy that cannot be evaluated safely.
func (p Policy) Validate() error {
	if p.Align <= 0 || p.Align&(p.Align-1) != 0 {
		return errors.Errorf("config: align must be a positive power of two, got %d", p.Align)
	}
	if p.Growth <= 1.0 {
		return errors.Errorf("config: growth must be > 1.0, got %f", p.Growth)
	}
	if p.FragThresholdPct < 0 || p.FragThresholdPct > 100 {
		return errors.Errorf("config: frag_threshold_pct must be in [0,100], got %f", p.FragThresholdPct)
	}
	if p.MinBlocksToCoalesce < 0 {
		return errors.Errorf("config: min_blocks_to_coalesce must be >= 0, got %d", p.MinBlocksToCoalesce)
	}
	if p.MinFreesBetweenCoalesce < 0 {
		return errors.Errorf("config: min_frees_between_coalesce must be >= 0, got %d", p.MinFreesBetweenCoalesce)
	}
	return nil
}

// Load reads a YAML policy document from path, starting from
// Default() so a partial document only overrides the fields it names.
func Load(path string) (Policy, error) {
	policy := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, errors.Wrapf(err, "config: reading %s", path)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return Policy{}, errors.Wrapf(err, "config: parsing %s", path)
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}
