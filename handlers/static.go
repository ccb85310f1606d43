package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed static/configure.html
var configurePage []byte

// Configure serves the static install/configure page.
func (h *AddonHandler) Configure(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(configurePage)
}
