package web

import (
	"context"
	"fmt"
	"net/http"
	"os"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/conductor"
	"github.com/dogeorg/dogewifi/pkg/metrics"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

func RESTAPI(
	config dogewifi.Config,
	log logrus.FieldLogger,
	nm dogewifi.NetworkManager,
	ws *WSRelay,
) conductor.Service {
	return newAPI(config, log, nm, ws)
}

func newAPI(config dogewifi.Config, log logrus.FieldLogger, nm dogewifi.NetworkManager, ws *WSRelay) *api {
	ctx, cancel := context.WithCancel(context.Background())

	token, err := newAPIToken()
	if err != nil {
		// state-changing routes answer 401 until restarted
		log.WithError(err).Error("No API token, mutating routes are disabled")
	}

	a := &api{
		mux:    http.NewServeMux(),
		token:  token,
		config: config,
		log:    log.WithField("component", "rest"),
		nm:     nm,
		ws:     ws,
		ctx:    ctx,
		cancel: cancel,
	}

	routes := map[string]http.HandlerFunc{
		"GET /network/interfaces":  a.getInterfaces,
		"GET /network/list":        a.getNetworkList,
		"GET /network/status":      a.getStatus,
		"GET /network/info":        a.getInfo,
		"POST /network/connect":    a.connect,
		"POST /network/reconnect":  a.reconnect,
		"POST /network/disconnect": a.disconnect,
		"GET /network/cache":       a.getCache,
		"DELETE /network/cache":    a.deleteCache,
		"GET /system/version":      a.getVersion,
		"GET /metrics":             metrics.DefaultRegistry().Handler().ServeHTTP,
		"/ws/log/":                 a.getLogSocket,
	}
	if ws != nil {
		routes["/ws/state/"] = a.getUpdateSocket
	}

	for p, h := range routes {
		a.mux.HandleFunc(p, a.authReq(p, h))
	}
	a.log.Debugf("Loaded %d API routes", len(routes))

	return a
}

type api struct {
	mux    *http.ServeMux
	config dogewifi.Config
	log    logrus.FieldLogger
	nm     dogewifi.NetworkManager
	ws     *WSRelay
	token  string

	// cancelled on shutdown, parent of background connection attempts
	ctx    context.Context
	cancel context.CancelFunc
}

func (t *api) handler() http.Handler {
	c := cors.New(cors.Options{
		AllowOriginFunc: t.originListed,
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders:  []string{"Authorization", "Content-Type"},
	})
	return c.Handler(t.checkOrigin(t.mux))
}

func (t *api) Run(started, stopped chan bool, stop chan context.Context) error {
	go func() {
		srv := &http.Server{
			Addr:    fmt.Sprintf("%s:%d", t.config.Server.Bind, t.config.Server.Port),
			Handler: t.handler(),
		}
		go func() {
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				t.log.WithError(err).Fatal("HTTP server ListenAndServe")
			}
		}()
		t.log.Infof("Listening on %s", srv.Addr)

		tokenFile := t.config.Server.TokenFile
		if tokenFile != "" && t.token != "" {
			if err := writeTokenFile(tokenFile, t.token); err != nil {
				t.log.WithError(err).Warnf("Cannot write API token to %s", tokenFile)
			} else {
				t.log.Infof("API token written to %s", tokenFile)
			}
		}

		started <- true
		ctx := <-stop
		t.cancel()
		srv.Shutdown(ctx)
		if tokenFile != "" {
			os.Remove(tokenFile)
		}
		stopped <- true
	}()
	return nil
}
