package handlers

import "net/http"

// Health reports liveness for probes and the web form's backend check.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "koescribe transcription API is running",
	})
}
