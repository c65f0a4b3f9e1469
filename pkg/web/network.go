package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/google/uuid"
)

func (t *api) getInterfaces(w http.ResponseWriter, r *http.Request) {
	names, err := t.nm.GetWirelessInterfaces()
	if err != nil {
		t.sendError(w, err)
		return
	}

	sendResponse(w, map[string]any{
		"success":    true,
		"interfaces": names,
		"default":    t.config.Interface,
	})
}

func (t *api) getNetworkList(w http.ResponseWriter, r *http.Request) {
	iface := t.interfaceParam(r)
	if !t.nm.IsDevice(iface) {
		sendErrorResponse(w, http.StatusNotFound, fmt.Sprintf("no network device %s", iface))
		return
	}

	networks, err := t.nm.GetAvailableNetworks(r.Context(), iface, queryBool(r, "unsecure"), queryBool(r, "first"))
	if err != nil {
		t.sendError(w, err)
		return
	}

	sendResponse(w, map[string]any{
		"success":   true,
		"interface": iface,
		"networks":  networks,
	})
}

func (t *api) getStatus(w http.ResponseWriter, r *http.Request) {
	status, err := t.nm.Status(r.Context(), t.interfaceParam(r))
	if err != nil {
		t.sendError(w, err)
		return
	}
	sendResponse(w, status)
}

func (t *api) getInfo(w http.ResponseWriter, r *http.Request) {
	info, err := t.nm.NetworkInfo(r.Context())
	if err != nil {
		t.sendError(w, err)
		return
	}
	sendResponse(w, map[string]any{
		"success":    true,
		"interfaces": info,
	})
}

// connect validates the request and starts the attempt in the
// background. The outcome is reported on the websocket under the
// returned ID.
func (t *api) connect(w http.ResponseWriter, r *http.Request) {
	var req dogewifi.ConnectionRequest
	if err := decodeBody(r, &req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Interface == "" {
		req.Interface = t.config.Interface
	}
	if err := req.Validate(); err != nil {
		t.sendError(w, err)
		return
	}

	id := uuid.NewString()
	go t.runConnect(id, req.Interface, req.ESSID, func() error {
		return t.nm.Connect(dogewifi.WithAttemptID(t.ctx, id), req)
	})

	sendResponse(w, map[string]string{"id": id})
}

type interfaceRequest struct {
	Interface  string `json:"interface"`
	ClearCache bool   `json:"clearCache"`
}

func (t *api) reconnect(w http.ResponseWriter, r *http.Request) {
	var req interfaceRequest
	if err := decodeBody(r, &req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Interface == "" {
		req.Interface = t.config.Interface
	}

	entry, err := t.nm.Cache().GetLatest()
	if err != nil {
		t.sendError(w, err)
		return
	}
	if entry == nil {
		t.sendError(w, dogewifi.ErrNoCachedNetwork)
		return
	}

	id := uuid.NewString()
	go t.runConnect(id, req.Interface, entry.ESSID, func() error {
		return t.nm.Reconnect(dogewifi.WithAttemptID(t.ctx, id), req.Interface)
	})

	sendResponse(w, map[string]string{"id": id})
}

func (t *api) disconnect(w http.ResponseWriter, r *http.Request) {
	var req interfaceRequest
	if err := decodeBody(r, &req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Interface == "" {
		req.Interface = t.config.Interface
	}

	if err := t.nm.Disconnect(r.Context(), req.Interface, req.ClearCache); err != nil {
		t.sendError(w, err)
		return
	}
	sendResponse(w, map[string]bool{"success": true})
}

// getCache describes the cached network without its key.
func (t *api) getCache(w http.ResponseWriter, r *http.Request) {
	entry, err := t.nm.Cache().GetLatest()
	if err != nil {
		t.sendError(w, err)
		return
	}
	if entry == nil {
		sendResponse(w, map[string]any{"success": true, "cached": false})
		return
	}

	sendResponse(w, map[string]any{
		"success":    true,
		"cached":     true,
		"essid":      entry.ESSID,
		"encryption": entry.Encryption,
		"conf":       entry.Conf,
		"hasSecret":  entry.Secret != "",
	})
}

func (t *api) deleteCache(w http.ResponseWriter, r *http.Request) {
	removed := t.nm.Cache().Empty()
	sendResponse(w, map[string]bool{"success": true, "removed": removed})
}

func (t *api) runConnect(id, iface, essid string, connect func() error) {
	err := connect()

	change := dogewifi.Change{
		ID:   id,
		Type: "connect",
		Update: dogewifi.ConnectResult{
			Interface: iface,
			ESSID:     essid,
			Connected: err == nil,
		},
	}
	if err != nil {
		change.Error = err.Error()
	}
	if t.ws != nil {
		t.ws.Relay(change)
	}
}

// decodeBody reads an optional JSON body. An empty body leaves v alone.
func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error parsing JSON: %w", err)
	}
	return nil
}
