package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gi8lino/jiraactions/internal/actions"
	"github.com/gi8lino/jiraactions/internal/enricher"
)

// enrichRequest is the body of an enrich call.
type enrichRequest struct {
	Type   string               `json:"type"`
	Entity actions.IssueContext `json:"entity"`
}

// changedRequest is the body of a comment text change.
type changedRequest struct {
	Comment string `json:"comment"`
}

// EnrichHandler renders a message of the conversation.
func EnrichHandler(reg *enricher.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv := r.PathValue("conversation")

		var req enrichRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid enrich request", err)
			return
		}

		res, err := reg.Get(conv).Enrich(req.Type, req.Entity)
		if err != nil {
			if errors.Is(err, enricher.ErrUnsupportedType) {
				writeError(w, http.StatusUnprocessableEntity, "unsupported message type", err)
				return
			}
			logger.Error("enrich failed", "conversation", conv, "type", req.Type, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to render message", nil)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

// ActionHandler dispatches an action event of the conversation.
// Failures inside the flow are shown in the dialog; only host failures surface here.
func ActionHandler(reg *enricher.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv := r.PathValue("conversation")

		var ev actions.Event
		if err := decodeJSON(w, r, &ev); err != nil {
			writeError(w, http.StatusBadRequest, "invalid action event", err)
			return
		}

		logger.Debug("action", "conversation", conv, "service", ev.Service, "type", ev.Type, "subtype", ev.Subtype)
		if err := reg.Get(conv).Action(r.Context(), ev); err != nil {
			logger.Error("action failed", "conversation", conv, "service", ev.Service, "type", ev.Type, "error", err)
			writeError(w, http.StatusBadGateway, "dialog host failed", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// SelectedHandler records the user picked in the assign dialog.
func SelectedHandler(reg *enricher.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var user actions.SelectedUser
		if err := decodeJSON(w, r, &user); err != nil {
			writeError(w, http.StatusBadRequest, "invalid selected user", err)
			return
		}

		reg.Get(r.PathValue("conversation")).Selected(user)
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeselectedHandler clears the picked user.
func DeselectedHandler(reg *enricher.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg.Get(r.PathValue("conversation")).Deselected()
		w.WriteHeader(http.StatusNoContent)
	}
}

// ChangedHandler records the drafted comment.
func ChangedHandler(reg *enricher.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changedRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid comment change", err)
			return
		}

		reg.Get(r.PathValue("conversation")).Changed(req.Comment)
		w.WriteHeader(http.StatusNoContent)
	}
}

// CloseHandler closes the dialogs of a conversation and forgets its state.
func CloseHandler(reg *enricher.Registry, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conv := r.PathValue("conversation")
		if err := reg.Remove(r.Context(), conv); err != nil {
			logger.Error("close conversation failed", "conversation", conv, "error", err)
			writeError(w, http.StatusBadGateway, "dialog host failed", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// EnricherInfoHandler reports the enricher name and the message types it renders.
func EnricherInfoHandler(name string, events []string) http.HandlerFunc {
	info := map[string]any{"name": name, "messageEvents": events}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, info)
	}
}
