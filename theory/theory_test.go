package theory

import "testing"

func TestInScale(t *testing.T) {
	tests := []struct {
		note int
		key  Key
		want bool
	}{
		{60, C, true},
		{61, C, false},
		{65, C, true},
		{66, C, false},
		{61, B, true}, // 61+11 = 72, pitch class 0
		{-1, C, true}, // wraps to 11
	}
	for _, tt := range tests {
		if got := InScale(Major, tt.note, tt.key); got != tt.want {
			t.Fatalf("InScale(major, %d, %v) = %v, want %v", tt.note, tt.key, got, tt.want)
		}
	}
}

func TestNearest(t *testing.T) {
	tests := []struct {
		note  float64
		scale Scale
		want  float64
	}{
		{61, Major, 60},
		{63, Major, 62},
		{65, MajorPentatonic, 64},
		{66, MajorPentatonic, 72}, // 66/12 rounds up to the next octave
		{62, MinorPentatonic, 63},
		{60, Major, 60},
	}
	for _, tt := range tests {
		if got := Nearest(tt.note, tt.scale); got != tt.want {
			t.Fatalf("Nearest(%g, %v) = %g, want %g", tt.note, tt.scale, got, tt.want)
		}
	}
	if got := Nearest(13, nil); got != 13 {
		t.Fatalf("empty scale changed the note: %g", got)
	}
}

func TestTranspose(t *testing.T) {
	if got := Transpose(60, -2); got != 36 {
		t.Fatalf("Transpose(60, -2) = %d", got)
	}
	got := TransposeScale(MajorPentatonic, A)
	want := Scale{9, 11, 1, 4, 6}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("TransposeScale = %v, want %v", got, want)
		}
	}
	if MajorPentatonic[0] != 0 {
		t.Fatalf("TransposeScale modified its input")
	}
}

func TestParseKeyAndScale(t *testing.T) {
	tests := []struct {
		in   string
		want Key
	}{
		{"C", C},
		{"f#", FSharp},
		{"Bb", ASharp},
		{"cb", B},
	}
	for _, tt := range tests {
		got, err := ParseKey(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("ParseKey(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseKey("H"); err == nil {
		t.Fatalf("expected error for H")
	}
	if s, err := ScaleByName("Minor-Pentatonic"); err != nil || len(s) != 5 {
		t.Fatalf("ScaleByName = %v, %v", s, err)
	}
	if _, err := ScaleByName("dorian"); err == nil {
		t.Fatalf("expected error for dorian")
	}
}
