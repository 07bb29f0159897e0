package config

import (
	"fmt"
	"os"

	"github.com/veridict/veridict/internal/policy"
	"gopkg.in/yaml.v3"
)

// Manifest describes one evaluation batch. Everything in it can also be
// given as CLI flags; flags win over manifest values.
type Manifest struct {
	Docs     string          `yaml:"docs"`
	Dialogs  string          `yaml:"dialogs"`
	OutDir   string          `yaml:"outdir"`
	Policies []string        `yaml:"policies"`
	Params   *ManifestParams `yaml:"params"`
}

// ManifestParams overrides individual scoring constants. Unset fields keep
// the engine defaults.
type ManifestParams struct {
	RecencyDiscount   *float64 `yaml:"recency_discount"`
	DecisionThreshold *float64 `yaml:"decision_threshold"`
	AbstainLow        *float64 `yaml:"abstain_low"`
	AbstainHigh       *float64 `yaml:"abstain_high"`
}

// LoadManifest reads and validates a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	for _, name := range m.Policies {
		if !policy.Known(name) {
			return fmt.Errorf("unknown policy %q", name)
		}
	}
	if p := m.Params; p != nil {
		for name, v := range map[string]*float64{
			"recency_discount":   p.RecencyDiscount,
			"decision_threshold": p.DecisionThreshold,
			"abstain_low":        p.AbstainLow,
			"abstain_high":       p.AbstainHigh,
		} {
			if v != nil && (*v < 0 || *v > 1) {
				return fmt.Errorf("%s must be in [0,1], got %v", name, *v)
			}
		}
		if p.AbstainLow != nil && p.AbstainHigh != nil && *p.AbstainLow > *p.AbstainHigh {
			return fmt.Errorf("abstain_low %v exceeds abstain_high %v", *p.AbstainLow, *p.AbstainHigh)
		}
	}
	return nil
}

// EngineParams resolves the manifest overrides against the defaults.
func (m *Manifest) EngineParams() policy.Params {
	params := policy.DefaultParams()
	if m == nil || m.Params == nil {
		return params
	}
	if v := m.Params.RecencyDiscount; v != nil {
		params.RecencyDiscount = *v
	}
	if v := m.Params.DecisionThreshold; v != nil {
		params.DecisionThreshold = *v
	}
	if v := m.Params.AbstainLow; v != nil {
		params.AbstainLow = *v
	}
	if v := m.Params.AbstainHigh; v != nil {
		params.AbstainHigh = *v
	}
	return params
}
