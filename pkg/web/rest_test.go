package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

type memoryCache struct {
	mu    sync.Mutex
	entry *dogewifi.CacheEntry
}

func (c *memoryCache) Save(essid string, encryption dogewifi.Encryption, secret string, conf string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &dogewifi.CacheEntry{ESSID: essid, Encryption: encryption, Secret: secret}
	if conf != "" {
		c.entry.Conf = &conf
	}
	return nil
}

func (c *memoryCache) Get(essid string) (*dogewifi.CacheEntry, error) {
	e, _ := c.GetLatest()
	if e == nil || e.ESSID != essid {
		return nil, nil
	}
	return e, nil
}

func (c *memoryCache) GetLatest() (*dogewifi.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry, nil
}

func (c *memoryCache) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	had := c.entry != nil
	c.entry = nil
	return had
}

type fakeManager struct {
	mu          sync.Mutex
	networks    []dogewifi.NetworkSummary
	connectErr  error
	connects    []dogewifi.ConnectionRequest
	disconnects []string
	cache       *memoryCache
}

func (m *fakeManager) GetWirelessInterfaces() ([]string, error) { return []string{"wlan0"}, nil }

func (m *fakeManager) IsDevice(iface string) bool { return iface == "wlan0" }

func (m *fakeManager) GetAvailableNetworks(ctx context.Context, iface string, unsecureOnly, firstOnly bool) ([]dogewifi.NetworkSummary, error) {
	if firstOnly && len(m.networks) > 1 {
		return m.networks[:1], nil
	}
	return m.networks, nil
}

func (m *fakeManager) Connect(ctx context.Context, req dogewifi.ConnectionRequest) error {
	m.mu.Lock()
	m.connects = append(m.connects, req)
	m.mu.Unlock()
	return m.connectErr
}

func (m *fakeManager) Reconnect(ctx context.Context, iface string) error {
	e, _ := m.cache.GetLatest()
	if e == nil {
		return dogewifi.ErrNoCachedNetwork
	}
	return m.Connect(ctx, e.ConnectionRequest(iface))
}

func (m *fakeManager) Disconnect(ctx context.Context, iface string, clearCache bool) error {
	m.disconnects = append(m.disconnects, iface)
	if clearCache {
		m.cache.Empty()
	}
	return nil
}

func (m *fakeManager) Status(ctx context.Context, iface string) (dogewifi.ConnectionStatus, error) {
	return dogewifi.ConnectionStatus{Interface: iface, ESSID: "HomeNet", Linked: true}, nil
}

func (m *fakeManager) NetworkInfo(ctx context.Context) (map[string]dogewifi.InterfaceInfo, error) {
	return map[string]dogewifi.InterfaceInfo{
		"eth0": {Interface: "eth0", NiceName: "Ethernet", Address: "10.0.0.5"},
	}, nil
}

func (m *fakeManager) Cache() dogewifi.CredentialCache { return m.cache }

func newTestAPI() (*api, *fakeManager, *WSRelay) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	nm := &fakeManager{
		cache: &memoryCache{},
		networks: []dogewifi.NetworkSummary{
			{ESSID: "Cafe", Quality: "60/70", Encryption: dogewifi.EncryptionOff},
			{ESSID: "HomeNet", Quality: "20/70", Encryption: dogewifi.EncryptionWPA},
		},
	}
	ws := NewWSRelay(log)
	return newAPI(dogewifi.DefaultConfig(), log, nm, ws), nm, ws
}

func call(t *testing.T, a *api, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.handler().ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), rec.Body.String())
	}
	return rec, payload
}

func nextChange(t *testing.T, ws *WSRelay) dogewifi.Change {
	t.Helper()
	select {
	case c := <-ws.relay:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no change relayed")
		return dogewifi.Change{}
	}
}

func TestNetworkList(t *testing.T) {
	a, _, _ := newTestAPI()

	rec, body := call(t, a, "GET", "/network/list?first=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wlan0", body["interface"])
	networks := body["networks"].([]any)
	require.Len(t, networks, 1)
	assert.Equal(t, "Cafe", networks[0].(map[string]any)["essid"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec, body = call(t, a, "GET", "/network/list?interface=wlan7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"].(map[string]any)["message"], "wlan7")
}

func TestConnectRunsInBackground(t *testing.T) {
	a, nm, ws := newTestAPI()

	rec, body := call(t, a, "POST", "/network/connect", `{"essid":"HomeNet","encryption":"wpa","secret":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	change := nextChange(t, ws)
	assert.Equal(t, id, change.ID)
	assert.Equal(t, "connect", change.Type)
	assert.Empty(t, change.Error)
	assert.Equal(t, dogewifi.ConnectResult{Interface: "wlan0", ESSID: "HomeNet", Connected: true}, change.Update)

	nm.mu.Lock()
	defer nm.mu.Unlock()
	require.Len(t, nm.connects, 1)
	assert.Equal(t, "wlan0", nm.connects[0].Interface)
}

func TestConnectReportsFailure(t *testing.T) {
	a, nm, ws := newTestAPI()
	nm.connectErr = dogewifi.ErrAssociationTimeout

	rec, _ := call(t, a, "POST", "/network/connect", `{"essid":"HomeNet"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	change := nextChange(t, ws)
	assert.Contains(t, change.Error, "timed out")
	assert.False(t, change.Update.(dogewifi.ConnectResult).Connected)
}

func TestConnectRejectsBadRequests(t *testing.T) {
	a, nm, _ := newTestAPI()

	rec, _ := call(t, a, "POST", "/network/connect", `{"encryption":"wpa"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, a, "POST", "/network/connect", `{"essid":"x","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, a, "POST", "/network/connect", `{"essid":"x","encryption":"wpa3"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, nm.connects)
}

func TestReconnectNeedsCache(t *testing.T) {
	a, nm, ws := newTestAPI()

	rec, _ := call(t, a, "POST", "/network/reconnect", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, nm.cache.Save("HomeNet", dogewifi.EncryptionWEP, "abcde", ""))
	rec, body := call(t, a, "POST", "/network/reconnect", `{"interface":"wlan0"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	change := nextChange(t, ws)
	assert.Equal(t, body["id"], change.ID)
	assert.Equal(t, "HomeNet", change.Update.(dogewifi.ConnectResult).ESSID)
}

func TestCacheIsRedacted(t *testing.T) {
	a, nm, _ := newTestAPI()

	_, body := call(t, a, "GET", "/network/cache", "")
	assert.Equal(t, false, body["cached"])

	require.NoError(t, nm.cache.Save("HomeNet", dogewifi.EncryptionWPA, "correct horse", ""))
	rec, body := call(t, a, "GET", "/network/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, "HomeNet", body["essid"])
	assert.Equal(t, true, body["hasSecret"])
	assert.NotContains(t, rec.Body.String(), "correct horse")

	_, body = call(t, a, "DELETE", "/network/cache", "")
	assert.Equal(t, true, body["removed"])
	_, body = call(t, a, "DELETE", "/network/cache", "")
	assert.Equal(t, false, body["removed"])
}

func TestDisconnect(t *testing.T) {
	a, nm, _ := newTestAPI()
	require.NoError(t, nm.cache.Save("HomeNet", dogewifi.EncryptionOff, "", ""))

	rec, body := call(t, a, "POST", "/network/disconnect", `{"clearCache":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []string{"wlan0"}, nm.disconnects)

	e, _ := nm.cache.GetLatest()
	assert.Nil(t, e)
}

func TestStatusAndInfo(t *testing.T) {
	a, _, _ := newTestAPI()

	rec, body := call(t, a, "GET", "/network/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HomeNet", body["essid"])
	assert.Equal(t, true, body["linked"])

	rec, body = call(t, a, "GET", "/network/info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body["interfaces"], "eth0")
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, errorStatus(dogewifi.ErrInvalidSecret))
	assert.Equal(t, http.StatusNotFound, errorStatus(dogewifi.ErrNoCachedNetwork))
	assert.Equal(t, http.StatusGatewayTimeout, errorStatus(dogewifi.ErrAssociationTimeout))
	assert.Equal(t, http.StatusInternalServerError, errorStatus(dogewifi.ErrAddressAcquisition))
}

func TestStateSocket(t *testing.T) {
	a, _, ws := newTestAPI()

	started, stopped := make(chan bool), make(chan bool)
	stop := make(chan context.Context)
	require.NoError(t, ws.Run(started, stopped, stop))
	<-started
	defer func() {
		stop <- context.Background()
		<-stopped
	}()

	server := httptest.NewServer(a.handler())
	defer server.Close()

	conn, err := websocket.Dial(strings.Replace(server.URL, "http", "ws", 1)+"/ws/state/", "", server.URL)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var bootstrap map[string]any
	require.NoError(t, websocket.JSON.Receive(conn, &bootstrap))
	assert.Equal(t, "bootstrap", bootstrap["type"])
	assert.Equal(t, "internal", bootstrap["id"])

	// let the relay register the socket
	time.Sleep(100 * time.Millisecond)
	ws.Relay(dogewifi.Change{ID: "internal", Type: "state", Update: dogewifi.StateUpdate{Interface: "wlan0", State: "ASSOCIATING"}})

	var change map[string]any
	require.NoError(t, websocket.JSON.Receive(conn, &change))
	assert.Equal(t, "state", change["type"])
	assert.Equal(t, "ASSOCIATING", change["update"].(map[string]any)["state"])
}

func TestLogSocketFollowsLogFile(t *testing.T) {
	a, _, _ := newTestAPI()
	a.config.Log.Journal = false
	a.config.Log.LogDir = t.TempDir()
	path := filepath.Join(a.config.Log.LogDir, dogewifi.AppName+".log")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	server := httptest.NewServer(a.handler())
	defer server.Close()

	conn, err := websocket.Dial(strings.Replace(server.URL, "http", "ws", 1)+"/ws/log/", "", server.URL)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, os.WriteFile(path, []byte("{\"message\":\"Connected\"}\n"), 0644))

	var line string
	require.NoError(t, websocket.JSON.Receive(conn, &line))
	assert.Equal(t, `{"message":"Connected"}`, line)
}

func TestLogSocketWithoutLogFile(t *testing.T) {
	a, _, _ := newTestAPI()
	a.config.Log.Journal = false
	a.config.Log.LogDir = t.TempDir()

	rec, _ := call(t, a, "GET", "/ws/log/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogSocketReleasesFollowerOnFailedHandshake(t *testing.T) {
	a, _, _ := newTestAPI()
	a.config.Log.Journal = false
	a.config.Log.LogDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(a.config.Log.LogDir, dogewifi.AppName+".log"), nil, 0644))

	server := httptest.NewServer(a.handler())
	defer server.Close()
	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}

	before := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		// a plain GET is not a websocket upgrade
		resp, err := client.Get(server.URL + "/ws/log/")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+3
	}, 3*time.Second, 50*time.Millisecond, "log followers still running")
}

func TestMutatingRoutesNeedToken(t *testing.T) {
	a, nm, _ := newTestAPI()
	require.NotEmpty(t, a.token)

	for _, route := range []string{"/network/connect", "/network/reconnect", "/network/disconnect"} {
		req := httptest.NewRequest("POST", route, strings.NewReader(`{"interface":"wlan0","clearCache":true}`))
		rec := httptest.NewRecorder()
		a.handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route)
	}

	req := httptest.NewRequest("DELETE", "/network/cache", nil)
	req.Header.Set("Authorization", "Bearer not-the-token")
	rec := httptest.NewRecorder()
	a.handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// reads stay open
	req = httptest.NewRequest("GET", "/network/status", nil)
	rec = httptest.NewRecorder()
	a.handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, nm.connects)
	assert.Empty(t, nm.disconnects)
}

func TestForeignOriginRejected(t *testing.T) {
	a, nm, _ := newTestAPI()

	req := httptest.NewRequest("POST", "/network/disconnect", strings.NewReader(`{"interface":"wlan0","clearCache":true}`))
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, nm.disconnects)

	req = httptest.NewRequest("GET", "/network/list", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	a.handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAllowedOrigin(t *testing.T) {
	a, nm, _ := newTestAPI()
	a.config.Server.AllowedOrigins = []string{"http://kano.local/"}

	req := httptest.NewRequest("POST", "/network/disconnect", strings.NewReader(`{}`))
	req.Header.Set("Origin", "http://kano.local")
	req.Header.Set("Authorization", "Bearer "+a.token)
	rec := httptest.NewRecorder()
	a.handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://kano.local", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, []string{"wlan0"}, nm.disconnects)

	// the daemon's own pages are always same-origin
	req = httptest.NewRequest("GET", "/network/status", nil)
	req.Header.Set("Origin", "http://"+req.Host)
	rec = httptest.NewRecorder()
	a.handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "api-token")
	token, err := newAPIToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)

	require.NoError(t, writeTokenFile(path, token))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, token+"\n", string(data))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	other, err := newAPIToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}
