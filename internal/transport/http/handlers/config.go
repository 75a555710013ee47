package handlers

import (
	"net/http"

	"github.com/alokemajumder/rrweb-server/internal/transport/http/response"
)

// ConfigHandler tells recorder pages which optional plugins to enable.
type ConfigHandler struct {
	enableConsolePlugin bool
}

func NewConfigHandler(enableConsolePlugin bool) *ConfigHandler {
	return &ConfigHandler{enableConsolePlugin: enableConsolePlugin}
}

func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]bool{"enableConsolePlugin": h.enableConsolePlugin})
}
