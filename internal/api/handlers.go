package api

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/matzehuels/popover/pkg/buildinfo"
	"github.com/matzehuels/popover/pkg/errors"
	"github.com/matzehuels/popover/pkg/pipeline"
	"github.com/matzehuels/popover/pkg/placement"
	"github.com/matzehuels/popover/pkg/scenario"
)

// Response headers describing how a placement was served.
const (
	headerCache       = "X-Cache"
	headerRequestHash = "X-Request-Hash"
)

// batchRequest is the body of POST /v1/placements/batch.
type batchRequest struct {
	Scenarios []scenario.Scenario `json:"scenarios"`
}

// batchResponse is the reply to a batch request.
type batchResponse struct {
	Results []*pipeline.Result `json:"results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	s.place(w, r, false)
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	s.place(w, r, true)
}

func (s *Server) place(w http.ResponseWriter, r *http.Request, explain bool) {
	opts, err := pipelineOptions(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	opts.Explain = explain

	format, err := requestFormat(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	sc, err := scenario.Decode(r.Body, format)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	runner := s.runner.WithEngineOptions(sc.EngineOptions()...)
	res, err := runner.Place(r.Context(), sc.Request(), opts)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	hit := res.CacheInfo.Hit
	if explain {
		hit = res.CacheInfo.TraceHit
	}
	w.Header().Set(headerCache, cacheStatus(hit))
	w.Header().Set(headerRequestHash, res.RequestHash)
	writeResult(w, r, res)
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	opts, err := pipelineOptions(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}

	var body batchRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeErr(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode batch request"))
		return
	}
	if len(body.Scenarios) == 0 {
		writeErr(w, r, errors.New(errors.ErrCodeInvalidInput, "batch contains no scenarios"))
		return
	}
	if len(body.Scenarios) > pipeline.MaxBatch {
		writeErr(w, r, errors.New(errors.ErrCodeInvalidInput, "batch of %d exceeds the limit of %d", len(body.Scenarios), pipeline.MaxBatch))
		return
	}

	reqs := make([]placement.Request, len(body.Scenarios))
	for i := range body.Scenarios {
		sc := &body.Scenarios[i]
		if err := sc.Validate(); err != nil {
			writeErr(w, r, errors.Wrap(errors.GetCode(err), err, "scenario %d", i))
			return
		}
		if sc.Engine != nil {
			writeErr(w, r, errors.New(errors.ErrCodeInvalidScenario, "scenario %d: engine overrides are not supported in batches", i))
			return
		}
		reqs[i] = sc.Request()
	}

	results, err := s.runner.PlaceAll(r.Context(), reqs, opts)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeResult(w, r, batchResponse{Results: results})
}

// pipelineOptions reads the query parameters shared by placement routes.
func pipelineOptions(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	if v := r.URL.Query().Get("refresh"); v != "" {
		refresh, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "refresh must be a boolean, got %q", v)
		}
		opts.Refresh = refresh
	}
	return opts, nil
}

// requestFormat maps the request Content-Type to a scenario format. An
// absent Content-Type is treated as JSON.
func requestFormat(r *http.Request) (scenario.Format, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return scenario.FormatJSON, nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUnsupported, err, "malformed content type %q", ct)
	}
	switch mt {
	case "application/json":
		return scenario.FormatJSON, nil
	case "application/yaml", "application/x-yaml", "text/yaml":
		return scenario.FormatYAML, nil
	case "application/toml", "text/toml":
		return scenario.FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported content type %q", mt)
}

// responseFormat reads the optional ?format= parameter.
func responseFormat(r *http.Request) (scenario.Format, error) {
	v := r.URL.Query().Get("format")
	if v == "" {
		return scenario.FormatJSON, nil
	}
	return scenario.ParseFormat(v)
}

var contentTypes = map[scenario.Format]string{
	scenario.FormatJSON: "application/json",
	scenario.FormatYAML: "application/yaml",
	scenario.FormatTOML: "application/toml",
}

func writeResult(w http.ResponseWriter, r *http.Request, v any) {
	format, err := responseFormat(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := scenario.WriteResult(&buf, v, format); err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
