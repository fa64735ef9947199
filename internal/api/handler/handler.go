package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"codeprep/internal/common"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object into dst. On failure it writes the
// 400 response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
