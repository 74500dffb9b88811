package server

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cwbudde/algo-synthctl/player"
	"github.com/cwbudde/algo-synthctl/score"
	"github.com/cwbudde/algo-synthctl/synth"
)

type fixture struct {
	srv      *Server
	rec      *score.Recorder
	settings *synth.Settings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := &score.Recorder{}
	p, err := player.New(rec, player.DefaultConfig())
	if err != nil {
		t.Fatalf("player.New: %v", err)
	}
	s, err := synth.New()
	if err != nil {
		t.Fatalf("synth.New: %v", err)
	}
	srv, err := New(s, p, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &fixture{srv: srv, rec: rec, settings: s}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	f.srv.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}
}

func TestListParams(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/params", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	params := decodeBody[[]paramView](t, w)
	if len(params) != len(synth.AllParams()) {
		t.Fatalf("got %d params", len(params))
	}
	v := params[synth.Velocity]
	if v.Name != "velocity" || v.Min != 0.05 || v.Max != 0.5 || v.Law != "linear" {
		t.Fatalf("velocity = %+v", v)
	}
}

func TestGetUnknownParam(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/params/wobble", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if body := decodeBody[map[string]string](t, w); body["error"] == "" {
		t.Fatalf("missing error message: %s", w.Body.String())
	}
}

func TestSetParam(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		real   float64
	}{
		{"visual delay time", "/params/delay_time", `{"visual":0.5}`, http.StatusOK, 1.0 / 6.0},
		{"real clamps", "/params/velocity", `{"real":2}`, http.StatusOK, 0.5},
		{"both given", "/params/velocity", `{"real":0.1,"visual":0.5}`, http.StatusBadRequest, 0},
		{"neither given", "/params/velocity", `{}`, http.StatusBadRequest, 0},
		{"law mismatch", "/params/velocity", `{"real":0.1,"law":"exponential"}`, http.StatusBadRequest, 0},
		{"unknown field", "/params/velocity", `{"value":0.1}`, http.StatusBadRequest, 0},
		{"unknown param", "/params/wobble", `{"real":1}`, http.StatusNotFound, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.do(t, http.MethodPut, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			v := decodeBody[paramView](t, w)
			if math.Abs(v.Real-tt.real) > 1e-12 {
				t.Fatalf("real = %g, want %g", v.Real, tt.real)
			}
		})
	}
}

func TestSetLimit(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPut, "/limits/velocity", `{"min":0,"max":0.3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	v := decodeBody[paramView](t, w)
	if v.Min != 0.05 || v.Max != 0.3 {
		t.Fatalf("range = [%g, %g], want [0.05, 0.3]", v.Min, v.Max)
	}

	w = f.do(t, http.MethodDelete, "/limits/velocity", "")
	v = decodeBody[paramView](t, w)
	if v.Max != 0.5 {
		t.Fatalf("max after clear = %g", v.Max)
	}

	if w := f.do(t, http.MethodPut, "/limits/velocity", `{"min":0.4,"max":0.2}`); w.Code != http.StatusBadRequest {
		t.Fatalf("inverted limit status = %d", w.Code)
	}
}

func TestPlayAndStopNote(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/notes/60", `{"volume":0.5,"hold":true}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	w = f.do(t, http.MethodDelete, "/notes/60", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("stop status = %d", w.Code)
	}
	lines := f.rec.Lines()
	if len(lines) != 2 {
		t.Fatalf("events = %v", lines)
	}
	ev, err := score.Parse(lines[0])
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	n, err := score.NoteFromEvent(ev)
	if err != nil {
		t.Fatalf("NoteFromEvent: %v", err)
	}
	if n.Instance != 60 || n.Duration != -1 || n.Reverb != 0.5 {
		t.Fatalf("note = %+v", n)
	}
	if lines[1] != score.Stop(60) {
		t.Fatalf("stop = %q", lines[1])
	}
}

func TestPlayNoteErrors(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/notes/200", "/notes/-1", "/notes/c4"} {
		if w := f.do(t, http.MethodPost, path, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d", path, w.Code)
		}
	}
	if w := f.do(t, http.MethodPost, "/notes/60", `{"volume":`); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d", w.Code)
	}
	if len(f.rec.Lines()) != 0 {
		t.Fatalf("rejected requests emitted %v", f.rec.Lines())
	}
}

func TestTogglesAndSlots(t *testing.T) {
	f := newFixture(t)
	if w := f.do(t, http.MethodPut, "/toggles", `{"delay":true,"reverb":true}`); w.Code != http.StatusOK {
		t.Fatalf("toggles status = %d", w.Code)
	}
	f.do(t, http.MethodPost, "/notes/60", "")
	f.do(t, http.MethodPost, "/notes/64", "")

	lines := f.rec.Lines()
	if len(lines) != 4 {
		t.Fatalf("events = %v, want two activations and two notes", lines)
	}
	if !strings.HasPrefix(lines[0], "i98.0 ") || !strings.HasPrefix(lines[1], "i99.1 ") {
		t.Fatalf("activations = %v", lines[:2])
	}

	w := f.do(t, http.MethodGet, "/slots", "")
	slots := decodeBody[struct {
		Delay  []delaySlotView  `json:"delay"`
		Reverb []reverbSlotView `json:"reverb"`
	}](t, w)
	if len(slots.Delay) != 1 || slots.Delay[0].Feedback != 0.5 {
		t.Fatalf("delay slots = %+v", slots.Delay)
	}
	if len(slots.Reverb) != 1 || slots.Reverb[0].ID != 1 || slots.Reverb[0].RoomSize != 0.85 {
		t.Fatalf("reverb slots = %+v", slots.Reverb)
	}
}

func TestMute(t *testing.T) {
	f := newFixture(t)
	if w := f.do(t, http.MethodPut, "/mute", `{"muted":true}`); w.Code != http.StatusOK {
		t.Fatalf("mute status = %d", w.Code)
	}
	if w := f.do(t, http.MethodPost, "/notes/60", ""); w.Code != http.StatusAccepted {
		t.Fatalf("muted note status = %d", w.Code)
	}
	if len(f.rec.Lines()) != 0 {
		t.Fatalf("muted player emitted %v", f.rec.Lines())
	}
	if w := f.do(t, http.MethodPut, "/mute", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing field status = %d", w.Code)
	}
}

func TestPutPresetIsAtomic(t *testing.T) {
	f := newFixture(t)
	body := `{"version":1,"values":{"velocity":{"real":0.2},"wobble":{"real":1}}}`
	if w := f.do(t, http.MethodPut, "/preset", body); w.Code != http.StatusNotFound {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if v := f.settings.MustValue(synth.Velocity); v != 0.05 {
		t.Fatalf("velocity changed to %g by a rejected preset", v)
	}

	body = `{"version":1,"values":{"velocity":{"real":0.2}},"toggles":{"delay":true}}`
	if w := f.do(t, http.MethodPut, "/preset", body); w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if v := f.settings.MustValue(synth.Velocity); v != 0.2 || !f.settings.EnableDelay {
		t.Fatalf("preset not applied: velocity %g delay %v", v, f.settings.EnableDelay)
	}

	w := f.do(t, http.MethodGet, "/preset", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"velocity"`) {
		t.Fatalf("get preset = %d %s", w.Code, w.Body.String())
	}
}
