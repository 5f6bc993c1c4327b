package judge

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

// Config is the Judge's configuration: the axiom weight table, the
// context-dependent axiom multiplier table (spec §4.2 step 3), and the
// dimension table to score against. Loadable from YAML so an operator can
// retune axiom weighting without a rebuild, the same way the teacher's
// rubric files are data rather than code.
type Config struct {
	AxiomWeights map[judgment.Axiom]float64            `yaml:"axiomWeights"`
	Multipliers  map[string]map[judgment.Axiom]float64 `yaml:"contextMultipliers"`
	Dimensions   []judgment.Dimension                  `yaml:"dimensions,omitempty"`
}

// multiplierMin and multiplierMax bound any context multiplier, per
// spec §4.2 step 3.
const (
	multiplierMin = 0.7
	multiplierMax = 1.4
)

// NewConfig returns the default Judge configuration: equal axiom weights
// and the recognized-query-type multiplier table named in spec §4.2.
func NewConfig() Config {
	return Config{
		AxiomWeights: map[judgment.Axiom]float64{
			judgment.AxiomPhi:      1.0,
			judgment.AxiomVerify:   1.0,
			judgment.AxiomCulture:  1.0,
			judgment.AxiomBurn:     1.0,
			judgment.AxiomFidelity: 1.0,
		},
		Multipliers: map[string]map[judgment.Axiom]float64{
			"security": {
				judgment.AxiomVerify:   1.4,
				judgment.AxiomFidelity: 1.3,
			},
			"design": {
				judgment.AxiomPhi:     1.3,
				judgment.AxiomCulture: 1.2,
			},
			"market": {
				judgment.AxiomBurn:   1.4,
				judgment.AxiomVerify: 1.2,
			},
		},
	}
}

// LoadConfigFile reads a YAML dimension/axiom/multiplier table from disk.
// A missing or malformed multiplier is silently clamped into
// [0.7, 1.4] rather than rejected, matching spec §7's "never fail a
// judgment on input" policy.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, judgment.NewResultError(judgment.ErrCodeConfig, "judge", "read config").WithCause(err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, judgment.NewResultError(judgment.ErrCodeConfig, "judge", "parse config").WithCause(err)
	}
	cfg.clampMultipliers()
	return cfg, nil
}

func (c *Config) clampMultipliers() {
	for qType, axioms := range c.Multipliers {
		for axiom, m := range axioms {
			if m < multiplierMin {
				m = multiplierMin
			}
			if m > multiplierMax {
				m = multiplierMax
			}
			c.Multipliers[qType][axiom] = m
		}
		_ = qType
	}
}
