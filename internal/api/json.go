package api

import (
	"encoding/json"
	"net/http"
)

// decodeJSON reads and decodes a JSON request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
