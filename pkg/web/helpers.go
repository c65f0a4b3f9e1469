package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/version"
)

func sendResponse(w http.ResponseWriter, payload any) {
	// note: w.Header after this, so we can call sendError
	b, err := json.Marshal(payload)
	if err != nil {
		sendErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("in json.Marshal: %s", err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store") // do not cache (Browsers cache GET forever by default)
	w.Write(b)
}

func sendErrorResponse(w http.ResponseWriter, code int, message string) {
	// built by hand so an encoding failure cannot hide the error
	payload := fmt.Sprintf("{\"error\":{\"code\":%d,\"message\":%q}}", code, message)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	w.Write([]byte(payload))
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, dogewifi.ErrInvalidRequest), errors.Is(err, dogewifi.ErrInvalidSecret):
		return http.StatusBadRequest
	case errors.Is(err, dogewifi.ErrNoCachedNetwork):
		return http.StatusNotFound
	case errors.Is(err, dogewifi.ErrAssociationTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (t *api) sendError(w http.ResponseWriter, err error) {
	code := errorStatus(err)
	if code >= 500 {
		t.log.WithError(err).Errorf("[!] %d", code)
	}
	sendErrorResponse(w, code, err.Error())
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

func (t *api) interfaceParam(r *http.Request) string {
	if iface := r.URL.Query().Get("interface"); iface != "" {
		return iface
	}
	return t.config.Interface
}

func (t *api) getVersion(w http.ResponseWriter, r *http.Request) {
	sendResponse(w, version.GetRelease())
}
