package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/obsidianstack/framewatch/internal/monitor"
	"github.com/obsidianstack/framewatch/pkg/types"
)

// maxBodyBytes caps one intake request.
const maxBodyBytes = 1 << 20

// frames handles POST /api/v1/frames.
func (h *Handler) frames(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var sigs []types.FrameSignal
	if err := decodeBody(w, r, &sigs); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	for i, s := range sigs {
		if s.Pipeline == "" {
			jsonErr(w, http.StatusBadRequest, fmt.Sprintf("frames[%d]: pipeline is required", i))
			return
		}
	}

	for _, s := range sigs {
		h.engine.SubmitFrame(s)
	}
	jsonResp(w, http.StatusAccepted, IntakeResponse{Accepted: len(sigs)})
}

// warnings handles POST /api/v1/warnings. Unrecognised status strings are
// still forwarded (the engine logs and drops them) but counted as ignored.
func (h *Handler) warnings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var sigs []types.RawWarningSignal
	if err := decodeBody(w, r, &sigs); err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	for i, s := range sigs {
		if s.Pipeline == "" {
			jsonErr(w, http.StatusBadRequest, fmt.Sprintf("warnings[%d]: pipeline is required", i))
			return
		}
	}

	var resp IntakeResponse
	for _, s := range sigs {
		if _, ok := monitor.Normalize(s.Status); !ok {
			resp.Ignored++
		} else {
			resp.Accepted++
		}
		h.engine.SubmitWarning(s)
	}
	jsonResp(w, http.StatusAccepted, resp)
}

// decodeBody reads a JSON array from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
