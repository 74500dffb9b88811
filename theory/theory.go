// Package theory holds the small amount of music theory the note path
// needs: scales, keys and quantisation of note numbers onto a scale.
package theory

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Octave is the number of semitones per octave.
const Octave = 12

// Scale is a set of pitch classes relative to the tonic.
type Scale []int

var (
	Major           = Scale{0, 2, 4, 5, 7, 9, 11}
	MajorPentatonic = Scale{0, 2, 4, 7, 9}
	MinorPentatonic = Scale{0, 3, 5, 7, 10}
	Chromatic       = Scale{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
)

var scalesByName = map[string]Scale{
	"major":            Major,
	"major_pentatonic": MajorPentatonic,
	"minor_pentatonic": MinorPentatonic,
	"chromatic":        Chromatic,
}

// ScaleByName resolves a scale name such as "major" or "minor-pentatonic".
func ScaleByName(name string) (Scale, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	s, ok := scalesByName[key]
	if !ok {
		return nil, fmt.Errorf("unknown scale %q", name)
	}
	return s, nil
}

// Key is a tonic pitch class.
type Key int

const (
	C Key = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

var keyNames = [...]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (k Key) String() string {
	if k < C || k > B {
		return fmt.Sprintf("key(%d)", int(k))
	}
	return keyNames[k]
}

// ParseKey accepts names like "C", "f#" or "Bb".
func ParseKey(name string) (Key, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return 0, fmt.Errorf("empty key")
	}
	n = strings.ToUpper(n[:1]) + strings.ToLower(n[1:])
	for i, kn := range keyNames {
		if kn == n {
			return Key(i), nil
		}
	}
	if len(n) == 2 && n[1] == 'b' {
		for i, kn := range keyNames {
			if kn == n[:1] {
				return Key(mod(i-1, Octave)), nil
			}
		}
	}
	return 0, fmt.Errorf("unknown key %q", name)
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

// InScale reports whether note belongs to scale when the note is shifted
// by key semitones.
func InScale(scale Scale, note int, key Key) bool {
	return slices.Contains(scale, mod(note+int(key), Octave))
}

// Nearest snaps note onto scale in the octave closest to it. Ties go to the
// scale degree listed first.
func Nearest(note float64, scale Scale) float64 {
	if len(scale) == 0 {
		return note
	}
	base := math.RoundToEven(note/Octave) * Octave
	best := float64(scale[0]) + base
	for _, pc := range scale[1:] {
		cand := float64(pc) + base
		if math.Abs(cand-note) < math.Abs(best-note) {
			best = cand
		}
	}
	return best
}

// Transpose shifts note by whole octaves.
func Transpose(note, octaves int) int {
	return note + octaves*Octave
}

// TransposeScale moves every degree of scale into key, wrapping into one
// octave.
func TransposeScale(scale Scale, key Key) Scale {
	out := make(Scale, len(scale))
	for i, pc := range scale {
		out[i] = mod(pc+int(key), Octave)
	}
	return out
}
