package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Cyclone1070/kiro/internal/agent"
	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/go-chi/chi/v5"
)

type openRequest struct {
	ID string `json:"id"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type resolveRequest struct {
	Approved *bool `json:"approved"`
}

type sessionView struct {
	ID         string        `json:"id"`
	State      agent.State   `json:"state"`
	Pending    []pendingView `json:"pending"`
	Turns      int           `json:"turns"`
	LastActive time.Time     `json:"last_active"`
}

type pendingView struct {
	approval.PendingChange
	Preview string `json:"preview"`
}

type resultView struct {
	State      agent.State  `json:"state"`
	Answer     string       `json:"answer,omitempty"`
	Pending    *pendingView `json:"pending,omitempty"`
	Iterations int          `json:"iterations"`
}

type resolveView struct {
	resultView
	ChangeID string `json:"change_id"`
	Approved bool   `json:"approved"`
}

func viewPending(c approval.PendingChange) pendingView {
	return pendingView{PendingChange: c, Preview: tool.PreviewText(c.Preview)}
}

func viewPendingList(list []approval.PendingChange) []pendingView {
	out := make([]pendingView, 0, len(list))
	for _, c := range list {
		out = append(out, viewPending(c))
	}
	return out
}

func viewResult(r *agent.Result) resultView {
	v := resultView{State: r.State, Answer: r.Answer, Iterations: r.Iterations}
	if r.Pending != nil {
		p := viewPending(*r.Pending)
		v.Pending = &p
	}
	return v
}

func viewSession(s *agent.Session) sessionView {
	return sessionView{
		ID:         s.ID(),
		State:      s.State(),
		Pending:    viewPendingList(s.Pending()),
		Turns:      len(s.Records()),
		LastActive: s.LastActive(),
	}
}

// decodeBody decodes an optional JSON body; an empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *server) openSession(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	sess, err := s.sessions.Open(req.ID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	s.logger.Info().Str("session", sess.ID()).Msg("session opened")
	writeJSON(w, http.StatusCreated, viewSession(sess))
}

func (s *server) session(w http.ResponseWriter, r *http.Request) (*agent.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return nil, false
	}
	return sess, true
}

func (s *server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewSession(sess))
}

func (s *server) closeSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	discarded := sess.Close()
	if err := s.sessions.Close(sess.ID()); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        sess.ID(),
		"discarded": viewPendingList(discarded),
	})
}

func (s *server) sendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req messageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}
	res, err := sess.Send(r.Context(), req.Message)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewResult(res))
}

func (s *server) listPending(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewPendingList(sess.Pending()))
}

func (s *server) resolveChange(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req resolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Approved == nil {
		writeError(w, http.StatusBadRequest, "bad_request", `"approved" is required`)
		return
	}
	cid := chi.URLParam(r, "cid")
	res, err := sess.Resolve(r.Context(), cid, *req.Approved)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolveView{resultView: viewResult(res), ChangeID: cid, Approved: *req.Approved})
}
