package handlers

import (
	"io"
	"log"
	"net/http"
)

// PingHandler обрабатывает GET запрос к /api/ping. Отвечает, пока процесс принимает запросы.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, "ok"); err != nil {
		log.Println(err)
	}
}
