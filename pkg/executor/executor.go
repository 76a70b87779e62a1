package executor

import (
	"log/slog"
	"net/http"

	"github.com/getmockd/mockd/pkg/expectation"
	"github.com/getmockd/mockd/pkg/request"
)

// Execute realises the action carried by a matched expectation: exactly one
// of CannedResponse or Forward is expected to be set, per
// Expectation.HasAction.
func Execute(w http.ResponseWriter, rec *request.Record, e *expectation.Expectation, log *slog.Logger) {
	switch {
	case e.CannedResponse != nil:
		WriteResponse(w, e.CannedResponse)
	case e.Forward != nil:
		Forward(w, rec, e.Forward, log)
	default:
		// Should not happen: Validate rejects an expectation with neither
		// action at admission. Defended here in case a store bypasses it.
		if log != nil {
			log.Error("matched expectation has neither a canned response nor a forward action", "id", e.ID)
		}
		http.Error(w, "matched expectation has no action", http.StatusInternalServerError)
	}
}
