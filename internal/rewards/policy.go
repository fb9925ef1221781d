package rewards

import (
	"errors"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"remat-backend/internal/models"
)

// Confidence tier boundaries and the medium-tier discount
const (
	DefaultManualBelow      = 0.40
	DefaultHighFrom         = 0.75
	DefaultMediumMultiplier = 0.6
)

var ErrInvalidPolicy = errors.New("invalid reward policy")

// Entry is the reward configuration for one waste type
type Entry struct {
	BasePoints int `yaml:"base_points" json:"base_points"`
	ManualCap  int `yaml:"manual_cap" json:"manual_cap"`
}

// Thresholds splits confidence into the manual, medium and high tiers
type Thresholds struct {
	ManualBelow      float64 `yaml:"manual_below"`
	HighFrom         float64 `yaml:"high_from"`
	MediumMultiplier float64 `yaml:"medium_multiplier"`
}

// Policy is the static reward table plus the tier thresholds
type Policy struct {
	Thresholds Thresholds                  `yaml:"thresholds"`
	Default    Entry                       `yaml:"default"`
	WasteTypes map[models.WasteType]Entry `yaml:"waste_types"`
}

// DefaultPolicy returns the built-in reward table
func DefaultPolicy() Policy {
	return Policy{
		Thresholds: Thresholds{
			ManualBelow:      DefaultManualBelow,
			HighFrom:         DefaultHighFrom,
			MediumMultiplier: DefaultMediumMultiplier,
		},
		Default: Entry{BasePoints: 0, ManualCap: 50},
		WasteTypes: map[models.WasteType]Entry{
			models.WasteBattery:        {BasePoints: 110, ManualCap: 60},
			models.WasteKeyboard:       {BasePoints: 40, ManualCap: 20},
			models.WasteMicrowave:      {BasePoints: 250, ManualCap: 150},
			models.WasteMobile:         {BasePoints: 150, ManualCap: 80},
			models.WasteMouse:          {BasePoints: 30, ManualCap: 15},
			models.WastePCB:            {BasePoints: 160, ManualCap: 90},
			models.WastePlayer:         {BasePoints: 90, ManualCap: 50},
			models.WastePrinter:        {BasePoints: 200, ManualCap: 120},
			models.WasteTelevision:     {BasePoints: 300, ManualCap: 180},
			models.WasteWashingMachine: {BasePoints: 350, ManualCap: 200},
			models.WasteLaptop:         {BasePoints: 180, ManualCap: 100},
		},
	}
}

// entryOverride and thresholdsOverride mirror Entry and Thresholds with
// optional fields so an override can change one value and keep the rest
type entryOverride struct {
	BasePoints *int `yaml:"base_points"`
	ManualCap  *int `yaml:"manual_cap"`
}

func (o entryOverride) apply(e Entry) Entry {
	if o.BasePoints != nil {
		e.BasePoints = *o.BasePoints
	}
	if o.ManualCap != nil {
		e.ManualCap = *o.ManualCap
	}
	return e
}

type thresholdsOverride struct {
	ManualBelow      *float64 `yaml:"manual_below"`
	HighFrom         *float64 `yaml:"high_from"`
	MediumMultiplier *float64 `yaml:"medium_multiplier"`
}

func (o thresholdsOverride) apply(t Thresholds) Thresholds {
	if o.ManualBelow != nil {
		t.ManualBelow = *o.ManualBelow
	}
	if o.HighFrom != nil {
		t.HighFrom = *o.HighFrom
	}
	if o.MediumMultiplier != nil {
		t.MediumMultiplier = *o.MediumMultiplier
	}
	return t
}

// LoadPolicyFile reads a YAML policy override. Keys missing from the file
// keep their built-in values, so a file may only list the entries it changes.
func LoadPolicyFile(path string) (Policy, error) {
	policy := DefaultPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read reward policy %s: %w", path, err)
	}

	var override struct {
		Thresholds thresholdsOverride                  `yaml:"thresholds"`
		Default    entryOverride                       `yaml:"default"`
		WasteTypes map[models.WasteType]entryOverride `yaml:"waste_types"`
	}
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Policy{}, fmt.Errorf("failed to parse reward policy %s: %w", path, err)
	}

	policy.Thresholds = override.Thresholds.apply(policy.Thresholds)
	policy.Default = override.Default.apply(policy.Default)
	for label, entry := range override.WasteTypes {
		wt := models.ParseWasteType(string(label))
		if wt == models.WasteUnknown {
			log.Printf("⚠️  Reward policy: ignoring unknown waste type %q", label)
			continue
		}
		policy.WasteTypes[wt] = entry.apply(policy.WasteTypes[wt])
	}

	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}

	log.Printf("✅ Loaded reward policy from %s (%d waste types)", path, len(policy.WasteTypes))
	return policy, nil
}

// Validate checks point values are non-negative and thresholds are ordered
func (p Policy) Validate() error {
	t := p.Thresholds
	if !(t.ManualBelow >= 0 && t.ManualBelow <= t.HighFrom && t.HighFrom <= 1) {
		return fmt.Errorf("%w: thresholds must satisfy 0 <= manual_below <= high_from <= 1", ErrInvalidPolicy)
	}
	if !(t.MediumMultiplier >= 0 && t.MediumMultiplier <= 1) {
		return fmt.Errorf("%w: medium_multiplier must be within [0,1]", ErrInvalidPolicy)
	}
	if p.Default.BasePoints < 0 || p.Default.ManualCap < 0 {
		return fmt.Errorf("%w: default entry has negative points", ErrInvalidPolicy)
	}
	for wt, e := range p.WasteTypes {
		if e.BasePoints < 0 || e.ManualCap < 0 {
			return fmt.Errorf("%w: %s has negative points", ErrInvalidPolicy, wt)
		}
	}
	return nil
}

// EntryFor returns the entry for a waste type, or the default entry
func (p Policy) EntryFor(wt models.WasteType) Entry {
	if e, ok := p.WasteTypes[wt]; ok {
		return e
	}
	return p.Default
}
