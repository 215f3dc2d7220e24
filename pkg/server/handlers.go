package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/taxotree/pkg/cache"
	errs "github.com/matzehuels/taxotree/pkg/errors"
	"github.com/matzehuels/taxotree/pkg/explorer"
	"github.com/matzehuels/taxotree/pkg/render/nodelink"
	"github.com/matzehuels/taxotree/pkg/render/sink"
	"github.com/matzehuels/taxotree/pkg/search"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	s.respondJSON(w, errs.HTTPStatus(code), ErrorResponse{Code: code, Message: errs.UserMessage(err)})
}

func (s *Server) respondFrame(w http.ResponseWriter, f explorer.Frame) {
	data, err := sink.RenderJSON(f.Scene, sink.WithPatch(f.Patch), sink.WithOutcome(f.Outcome.String()))
	if err != nil {
		s.respondError(w, errs.Wrap(errs.ErrCodeInternal, err, "encode frame"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// idParam returns the node id matched by a trailing wildcard.
func idParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "*")
	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeInvalidInput, err, "malformed node id")
	}
	if err := errs.ValidateNodeID(id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.respondFrame(w, sessionFrom(r).Frame(r.Context()))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	f, err := sessionFrom(r).Select(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondFrame(w, f)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	sess := sessionFrom(r)
	if sess.Selected() == nil {
		s.respondError(w, errs.New(errs.ErrCodeSessionNotFound, "no root selected"))
		return
	}
	s.respondFrame(w, sess.Click(r.Context(), id))
}

// handleReveal expands the chain of ids given as repeated id query
// parameters.
func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	ids := r.URL.Query()["id"]
	if len(ids) == 0 {
		s.respondError(w, errs.New(errs.ErrCodeInvalidInput, "at least one id is required"))
		return
	}
	for _, id := range ids {
		if err := errs.ValidateNodeID(id); err != nil {
			s.respondError(w, err)
			return
		}
	}
	sess := sessionFrom(r)
	if sess.Selected() == nil {
		s.respondError(w, errs.New(errs.ErrCodeSessionNotFound, "no root selected"))
		return
	}
	s.respondFrame(w, sess.Reveal(r.Context(), ids...))
}

func (s *Server) handleDirection(w http.ResponseWriter, r *http.Request) {
	d, err := taxonomy.ParseDirection(chi.URLParam(r, "dir"))
	if err != nil {
		s.respondError(w, errs.Wrap(errs.ErrCodeInvalidInput, err, "%s", err.Error()))
		return
	}
	s.respondFrame(w, sessionFrom(r).SetDirection(r.Context(), d))
}

func (s *Server) handleDeprecated(w http.ResponseWriter, r *http.Request) {
	on, err := strconv.ParseBool(chi.URLParam(r, "on"))
	if err != nil {
		s.respondError(w, errs.New(errs.ErrCodeInvalidInput, "deprecated flag must be true or false"))
		return
	}
	s.respondFrame(w, sessionFrom(r).SetIncludeDeprecated(r.Context(), on))
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	info, err := sessionFrom(r).Info(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := search.Request{
		Query: q.Get("q"),
		Mode:  taxonomy.SearchMode(q.Get("mode")),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.respondError(w, errs.New(errs.ErrCodeInvalidQuery, "limit must be a number"))
			return
		}
		req.Limit = n
	}
	s.respondJSON(w, http.StatusOK, sessionFrom(r).Search(r.Context(), req))
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	labels := r.URL.Query().Get("labels") != "false"
	sc := sessionFrom(r).Scene(r.Context())
	digest, err := sink.Digest(sc)
	if err != nil {
		s.respondError(w, errs.Wrap(errs.ErrCodeInternal, err, "svg render"))
		return
	}

	opts := cache.ArtifactKeyOpts{Format: "svg", Labels: labels, Interactive: true}
	data, hit, err := s.cfg.Artifacts.GetOrRender(r.Context(), digest, opts, func() ([]byte, error) {
		return sink.RenderSVG(sc, sink.WithLabels(labels), sink.WithInteraction()), nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("X-Cache", cacheStatus(hit))
	_, _ = w.Write(data)
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	sc := sessionFrom(r).Scene(r.Context())
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	_, _ = w.Write([]byte(nodelink.ToDOT(sc, nodelink.Options{ShowExtra: true})))
}

func (s *Server) handleGraphviz(w http.ResponseWriter, r *http.Request) {
	sc := sessionFrom(r).Scene(r.Context())
	digest, err := sink.Digest(sc)
	if err != nil {
		s.respondError(w, errs.Wrap(errs.ErrCodeInternal, err, "graphviz render"))
		return
	}
	opts := cache.ArtifactKeyOpts{Format: "graphviz-svg", Labels: true}
	data, hit, err := s.cfg.Artifacts.GetOrRender(r.Context(), digest, opts, func() ([]byte, error) {
		return nodelink.RenderSVG(r.Context(), nodelink.ToDOT(sc, nodelink.Options{ShowExtra: true}))
	})
	if err != nil {
		s.respondError(w, errs.Wrap(errs.ErrCodeInternal, err, "graphviz render"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("X-Cache", cacheStatus(hit))
	_, _ = w.Write(data)
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
