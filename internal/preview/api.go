package preview

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"pkt.systems/mdmail"
	"pkt.systems/mdmail/lint"
)

const maxRenderBody = 1 << 20

// RenderRequest is the body of POST /render. Style fields override the
// preset, which defaults to the server style.
type RenderRequest struct {
	Markdown string          `json:"markdown"`
	Preset   string          `json:"preset,omitempty"`
	Style    json.RawMessage `json:"style,omitempty"`
	Document bool            `json:"document,omitempty"`
	Width    int             `json:"width,omitempty"`
}

// RenderResponse is the body returned by POST /render.
type RenderResponse struct {
	HTML     string         `json:"html"`
	Text     string         `json:"text"`
	Subject  string         `json:"subject,omitempty"`
	Findings []lint.Finding `json:"findings"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRenderBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := mdmail.ValidateInput([]byte(req.Markdown)); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	style, err := s.requestStyle(req)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc := mdmail.Document{Body: req.Markdown, Style: style}
	if !s.opts.IgnoreFrontMatter {
		doc = mdmail.ParseDocument(req.Markdown, style)
	}
	opts := append(s.renderOptions(req.Document), mdmail.WithFrontMatter(false))
	out := mdmail.RenderString(doc.Body, doc.Style, opts...)
	findings := lint.Check(out)
	if findings == nil {
		findings = []lint.Finding{}
	}
	writeJSON(w, http.StatusOK, RenderResponse{
		HTML:     out,
		Text:     mdmail.PlainText(out, req.Width),
		Subject:  doc.Subject,
		Findings: findings,
	})
}

func (s *Server) requestStyle(req RenderRequest) (mdmail.StyleConfig, error) {
	style := s.opts.Style
	if req.Preset != "" {
		preset, ok := mdmail.PresetByName(req.Preset)
		if !ok {
			return mdmail.StyleConfig{}, fmt.Errorf("unknown preset %q", req.Preset)
		}
		style = preset
	}
	if len(req.Style) > 0 && string(req.Style) != "null" {
		if err := json.Unmarshal(req.Style, &style); err != nil {
			return mdmail.StyleConfig{}, fmt.Errorf("invalid style: %w", err)
		}
	}
	return style, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
