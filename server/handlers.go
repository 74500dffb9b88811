package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cwbudde/algo-synthctl/player"
	"github.com/cwbudde/algo-synthctl/preset"
	"github.com/cwbudde/algo-synthctl/synth"
)

const maxBodySize = 1 << 20

type paramView struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Real   float64 `json:"real"`
	Visual float64 `json:"visual"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Law    string  `json:"law"`
}

type noteRequest struct {
	Offset   *float64 `json:"offset,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
	Left     *float64 `json:"left,omitempty"`
	Right    *float64 `json:"right,omitempty"`
	Lowpass  *float64 `json:"lowpass,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Hold     bool     `json:"hold,omitempty"`
}

type delaySlotView struct {
	ID       int     `json:"id"`
	Feedback float64 `json:"feedback"`
	Time     float64 `json:"time"`
}

type reverbSlotView struct {
	ID       int     `json:"id"`
	RoomSize float64 `json:"room_size"`
	Damping  float64 `json:"damping"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleListParams(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := synth.AllParams()
	out := make([]paramView, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.view(id))
	}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	id, err := synth.ParseParamID(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.Lock()
	v := s.view(id)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, v)
}

// handleSetParam accepts {"real":x} or {"visual":x}, validated like a
// preset entry.
func (s *Server) handleSetParam(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var v preset.Value
	if !s.decode(w, r, &v, false) {
		return
	}
	s.applyAndView(w, name, &preset.File{Values: map[string]preset.Value{name: v}})
}

func (s *Server) handleSetLimit(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var l preset.Limit
	if !s.decode(w, r, &l, false) {
		return
	}
	s.applyAndView(w, name, &preset.File{Limits: map[string]preset.Limit{name: l}})
}

func (s *Server) handleClearLimit(w http.ResponseWriter, r *http.Request) {
	id, err := synth.ParseParamID(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.Lock()
	s.settings.Limits().Clear(id)
	v := s.view(id)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSetToggles(w http.ResponseWriter, r *http.Request) {
	var t preset.Toggles
	if !s.decode(w, r, &t, false) {
		return
	}
	s.mu.Lock()
	err := preset.ApplyFile(s.settings, &preset.File{Toggles: &t})
	f := preset.FromSettings(s.settings)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, f.Toggles)
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	f := preset.FromSettings(s.settings)
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, f)
}

// handlePutPreset applies a preset document onto the live settings. The
// document is first applied to fresh defaults so that a bad entry leaves
// the live settings untouched.
func (s *Server) handlePutPreset(w http.ResponseWriter, r *http.Request) {
	var f preset.File
	if !s.decode(w, r, &f, false) {
		return
	}
	if f.ExpFactor != nil && *f.ExpFactor != s.settings.ExpFactor() {
		s.writeError(w, fmt.Errorf("%w: exp_factor cannot change on a running server", errBadRequest))
		return
	}
	probe, err := synth.New(synth.WithExpFactor(s.settings.ExpFactor()))
	if err == nil {
		err = preset.ApplyFile(probe, &f)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := preset.ApplyFile(s.settings, &f); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, preset.FromSettings(s.settings))
}

func (s *Server) handlePlayNote(w http.ResponseWriter, r *http.Request) {
	note, ok := s.noteParam(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if !s.decode(w, r, &req, true) {
		return
	}
	var opts []player.PlayOption
	if req.Offset != nil {
		opts = append(opts, player.WithOffset(*req.Offset))
	}
	if req.Volume != nil {
		opts = append(opts, player.WithVolume(*req.Volume))
	}
	if req.Left != nil || req.Right != nil {
		left, right := 1.0, 1.0
		if req.Left != nil {
			left = *req.Left
		}
		if req.Right != nil {
			right = *req.Right
		}
		opts = append(opts, player.WithPan(left, right))
	}
	if req.Lowpass != nil {
		opts = append(opts, player.WithLowpass(*req.Lowpass))
	}
	if req.Duration != nil {
		opts = append(opts, player.WithDuration(*req.Duration))
	}
	if req.Hold {
		opts = append(opts, player.Indefinitely())
	}

	s.mu.Lock()
	err := s.player.PlayNote(note, s.settings, opts...)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{"note": note, "muted": s.player.Muted()})
}

func (s *Server) handleStopNote(w http.ResponseWriter, r *http.Request) {
	note, ok := s.noteParam(w, r)
	if !ok {
		return
	}
	if err := s.player.StopNote(note); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]any{"note": note})
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Muted *bool `json:"muted"`
	}
	if !s.decode(w, r, &req, false) {
		return
	}
	if req.Muted == nil {
		s.writeError(w, fmt.Errorf("%w: missing muted", errBadRequest))
		return
	}
	s.player.SetMute(*req.Muted)
	s.writeJSON(w, http.StatusOK, map[string]bool{"muted": s.player.Muted()})
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	delays := []delaySlotView{}
	for _, sl := range s.player.DelaySlots() {
		delays = append(delays, delaySlotView{ID: sl.ID, Feedback: sl.Key.Feedback, Time: sl.Key.Time})
	}
	reverbs := []reverbSlotView{}
	for _, sl := range s.player.ReverbSlots() {
		reverbs = append(reverbs, reverbSlotView{ID: sl.ID, RoomSize: sl.Key.RoomSize, Damping: sl.Key.Damping})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"delay": delays, "reverb": reverbs})
}

// view must be called with s.mu held and a valid id.
func (s *Server) view(id synth.ParamID) paramView {
	p, _ := s.settings.Var(id)
	min, _ := s.settings.Min(id)
	max, _ := s.settings.Max(id)
	return paramView{
		ID:     int(id),
		Name:   id.String(),
		Real:   p.Real(),
		Visual: p.Visual(),
		Min:    min,
		Max:    max,
		Law:    p.Law().Kind.String(),
	}
}

func (s *Server) applyAndView(w http.ResponseWriter, name string, f *preset.File) {
	id, err := synth.ParseParamID(name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.mu.Lock()
	err = preset.ApplyFile(s.settings, f)
	v := s.view(id)
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

func (s *Server) noteParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	note, err := strconv.Atoi(chi.URLParam(r, "note"))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: note must be an integer", errBadRequest))
		return 0, false
	}
	return note, true
}

// decode reads a JSON body into dst. With optional an empty body is accepted.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		s.writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return false
	}
	return true
}
