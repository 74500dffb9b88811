package preset

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/cwbudde/algo-synthctl/synth"
)

// Version is the schema version written by SaveJSON.
const Version = 1

// File is the JSON schema for synth presets.
type File struct {
	Version   int              `json:"version"`
	ExpFactor *float64         `json:"exp_factor,omitempty"`
	Values    map[string]Value `json:"values"`
	Toggles   *Toggles         `json:"toggles,omitempty"`
	Limits    map[string]Limit `json:"limits,omitempty"`
}

// Value sets one parameter either by real value or by slider position.
// Law, when present, must match the curve law of the parameter.
type Value struct {
	Real   *float64 `json:"real,omitempty"`
	Visual *float64 `json:"visual,omitempty"`
	Law    string   `json:"law,omitempty"`
}

// Toggles are the feature switches of a settings value.
type Toggles struct {
	Delay               *bool `json:"delay,omitempty"`
	Reverb              *bool `json:"reverb,omitempty"`
	PitchModulation     *bool `json:"pitch_modulation,omitempty"`
	FrequencyModulation *bool `json:"frequency_modulation,omitempty"`
}

// Limit is a runtime override of a parameter range. A missing side keeps
// the built-in bound.
type Limit struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// LoadJSON loads a preset JSON file and applies it on top of default
// settings built with opts. An exp_factor in the file takes precedence
// over one passed in opts.
func LoadJSON(path string, opts ...synth.Option) (*synth.Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.ExpFactor != nil {
		opts = append(opts, synth.WithExpFactor(*f.ExpFactor))
	}

	s, err := synth.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := ApplyFile(s, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ApplyFile applies a parsed preset file onto existing settings. Limits are
// installed before values so that values are clamped to them.
func ApplyFile(dst *synth.Settings, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination settings")
	}
	if f == nil {
		return nil
	}
	if f.Version != 0 && f.Version != Version {
		return fmt.Errorf("unsupported preset version %d", f.Version)
	}

	for _, name := range sortedKeys(f.Limits) {
		id, err := synth.ParseParamID(name)
		if err != nil {
			return err
		}
		l := f.Limits[name]
		min, max, _ := synth.BuiltinRange(id)
		if l.Min != nil {
			if !finite(*l.Min) {
				return fmt.Errorf("limits.%s.min must be finite", name)
			}
			min = *l.Min
		}
		if l.Max != nil {
			if !finite(*l.Max) {
				return fmt.Errorf("limits.%s.max must be finite", name)
			}
			max = *l.Max
		}
		if min > max {
			return fmt.Errorf("limits.%s: min %g > max %g", name, min, max)
		}
		if err := dst.UpdateLimit(id, min, max); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(f.Values) {
		id, err := synth.ParseParamID(name)
		if err != nil {
			return err
		}
		v := f.Values[name]
		if v.Law != "" {
			law, err := synth.ParseCurve(v.Law)
			if err != nil {
				return fmt.Errorf("values.%s: %w", name, err)
			}
			p, _ := dst.Var(id)
			if want := p.Law().Kind; law != want {
				return fmt.Errorf("values.%s: law %s does not match %s", name, law, want)
			}
		}
		switch {
		case v.Real != nil && v.Visual != nil:
			return fmt.Errorf("values.%s: set either real or visual, not both", name)
		case v.Real != nil:
			if !finite(*v.Real) {
				return fmt.Errorf("values.%s.real must be finite", name)
			}
			if _, err := dst.SetValue(id, *v.Real); err != nil {
				return err
			}
		case v.Visual != nil:
			if !finite(*v.Visual) {
				return fmt.Errorf("values.%s.visual must be finite", name)
			}
			if _, err := dst.SetVisualValue(id, *v.Visual); err != nil {
				return err
			}
		default:
			return fmt.Errorf("values.%s: missing real or visual", name)
		}
	}

	if t := f.Toggles; t != nil {
		if t.Delay != nil {
			dst.EnableDelay = *t.Delay
		}
		if t.Reverb != nil {
			dst.EnableReverb = *t.Reverb
		}
		if t.PitchModulation != nil {
			dst.EnablePitchModulation = *t.PitchModulation
		}
		if t.FrequencyModulation != nil {
			dst.EnableFrequencyModulation = *t.FrequencyModulation
		}
	}
	return nil
}

// FromSettings captures every real value, toggle and limit override of s.
func FromSettings(s *synth.Settings) *File {
	k := s.ExpFactor()
	f := &File{
		Version:   Version,
		ExpFactor: &k,
		Values:    make(map[string]Value, len(synth.AllParams())),
		Toggles: &Toggles{
			Delay:               boolPtr(s.EnableDelay),
			Reverb:              boolPtr(s.EnableReverb),
			PitchModulation:     boolPtr(s.EnablePitchModulation),
			FrequencyModulation: boolPtr(s.EnableFrequencyModulation),
		},
	}
	for _, id := range synth.AllParams() {
		p, _ := s.Var(id)
		real := p.Real()
		f.Values[id.String()] = Value{Real: &real, Law: p.Law().Kind.String()}
	}
	for _, id := range s.Limits().IDs() {
		min, max, _ := s.Limits().Get(id)
		var l Limit
		if !math.IsInf(min, 0) {
			l.Min = &min
		}
		if !math.IsInf(max, 0) {
			l.Max = &max
		}
		if f.Limits == nil {
			f.Limits = make(map[string]Limit)
		}
		f.Limits[id.String()] = l
	}
	return f
}

// SaveJSON writes s as an indented preset file.
func SaveJSON(path string, s *synth.Settings) error {
	b, err := json.MarshalIndent(FromSettings(s), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func boolPtr(b bool) *bool { return &b }
