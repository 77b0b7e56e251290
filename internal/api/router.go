package api

import (
	"net/http"
)

func NewRouter(handler *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/slack/commands", handler.SlashCommands)
	mux.HandleFunc("/slack/interactions", handler.Interactions)
	mux.HandleFunc("/slack/options", handler.Options)
	mux.HandleFunc("/hooks/zapier", handler.ZapierHook)
	mux.HandleFunc("/healthz", handler.Healthz)

	return mux
}
