package http

import (
	"encoding/json"
	"net/http"
)

// writeOK writes a {"status": true} envelope. extra adds top-level members
// next to data, e.g. jwt_token or image_url.
func writeOK(w http.ResponseWriter, msg string, data any, extra map[string]any) {
	body := map[string]any{"status": true}
	if msg != "" {
		body["message"] = msg
	}
	if data != nil {
		body["data"] = data
	}
	for k, v := range extra {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// writeFail writes a {"status": false} envelope with the given HTTP status.
// Business rejections use 200 so the client shows msg.
func writeFail(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": msg})
}

// decodeBody decodes the JSON request body into v or writes a 400.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeFail(w, http.StatusBadRequest, "invalid request")
		return false
	}
	return true
}
