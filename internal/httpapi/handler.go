package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/relaysms/email-gateway/internal/metrics"
	"github.com/relaysms/email-gateway/pkg/relay"
)

// handleSend decodes one send request and runs it through the orchestrator.
// The orchestrator signals business failures via the result value, so the
// response is 200 either way; only malformed bodies earn a 400.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req relay.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		msg := decodeErrorMessage(err)
		s.log.Warn("malformed send request", "error", msg)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return
	}

	result := s.relay.Send(r.Context(), &req)

	path := metrics.PathDirect
	if req.Alias != nil {
		path = metrics.PathAlias
	}
	metrics.RecordSend(path, result.Success)

	writeJSON(w, http.StatusOK, result)
}
