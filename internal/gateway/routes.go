package gateway

import (
	"net/http"
	"time"

	"github.com/soyeahso/gacc/internal/console"
	"github.com/soyeahso/gacc/internal/version"
)

const maxHistoryLimit = 500

func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("/", handleNotFound)
}

func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("console.submit", s.rpcSubmit)
	s.Handle("console.reload", s.rpcReload)
	s.Handle("console.mute", s.rpcMute)
	s.Handle("clients.list", s.rpcClientsList)
	s.Handle("commands.list", s.rpcCommandsList)
	s.Handle("history.recent", s.rpcHistoryRecent)
}

func (s *Server) rpcHealth(rc *RequestContext) {
	resp := HealthResponse{
		Status:   "ok",
		Version:  version.Version,
		Clients:  s.clients.Count(),
		Commands: s.console.Registry().Len(),
	}
	if !s.startedAt.IsZero() {
		resp.UptimeMs = time.Since(s.startedAt).Milliseconds()
	}
	rc.Respond(resp)
}

func (s *Server) rpcSubmit(rc *RequestContext) {
	var p SubmitParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	rc.Client.submitted.Add(1)
	ctx := console.WithSource(rc.Ctx, rc.Client.Source())
	rc.Respond(s.console.Submit(ctx, p.Line))
}

func (s *Server) rpcMute(rc *RequestContext) {
	var p MuteParams
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	rc.Client.SetMuted(p.Muted)
	rc.Respond(map[string]any{"muted": p.Muted})
}

func (s *Server) rpcClientsList(rc *RequestContext) {
	rc.Respond(map[string]any{"clients": s.clients.Summaries()})
}

func (s *Server) rpcReload(rc *RequestContext) {
	rep := s.console.Reload(rc.Ctx)
	out := ReloadResult{
		Commands: s.console.Registry().Len(),
		Modules:  len(rep.Modules),
	}
	for _, e := range rep.Errors {
		out.Errors = append(out.Errors, ReloadError{
			Kind:    e.Kind,
			Module:  e.Module,
			Command: e.Command,
			Message: e.Err.Error(),
		})
	}
	rc.Respond(out)
}

func (s *Server) rpcCommandsList(rc *RequestContext) {
	descs := s.console.Registry().Descriptors()
	out := make([]CommandInfo, 0, len(descs))
	for _, d := range descs {
		out = append(out, CommandInfo{Name: d.Name, Usage: d.Usage, Module: d.Module})
	}
	rc.Respond(map[string]any{"commands": out})
}

func (s *Server) rpcHistoryRecent(rc *RequestContext) {
	h := s.console.History()
	if h == nil {
		rc.RespondError("unavailable", "history is disabled")
		return
	}

	p := HistoryParams{Limit: 20}
	if err := rc.Params(&p); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}
	if p.Limit <= 0 || p.Limit > maxHistoryLimit {
		p.Limit = maxHistoryLimit
	}

	entries, err := h.Recent(p.Limit)
	if err != nil {
		s.log.Error().Err(err).Msg("reading history")
		rc.RespondError("internal", "failed to read history")
		return
	}
	rc.Respond(map[string]any{"entries": entries})
}
