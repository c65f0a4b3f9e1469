package network

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dogeorg/dogewifi/pkg/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

/* InternetProbe sends a HEAD request to a well known site without
 * following redirects.
 *
 * Any answer means the internet is reachable. A redirect to a host
 * outside the probed site's domain means a captive portal is
 * intercepting traffic.
 */
type InternetProbe struct {
	log    logrus.FieldLogger
	client *resty.Client
	url    string
	prefix string
}

func NewInternetProbe(log logrus.FieldLogger, probeURL string, timeout time.Duration) *InternetProbe {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}))

	return &InternetProbe{
		log:    log.WithField("component", "probe"),
		client: client,
		url:    probeURL,
		prefix: sitePrefix(probeURL),
	}
}

// Check returns whether the probe answered and whether it was redirected.
func (p *InternetProbe) Check(ctx context.Context) (reachable bool, redirected bool) {
	resp, err := p.client.R().SetContext(ctx).Head(p.url)
	if err != nil {
		p.log.WithError(err).Debug("Internet probe failed")
		metrics.SetInternetReachable(false)
		return false, false
	}
	metrics.SetInternetReachable(true)

	code := resp.StatusCode()
	if code < 300 || code >= 400 {
		return true, false
	}

	location := resp.Header().Get("Location")
	redirected = !p.sameSite(location)
	if redirected {
		p.log.WithField("location", location).Info("Internet probe was redirected")
	}
	return true, redirected
}

func (p *InternetProbe) sameSite(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	// relative redirects stay on the probed host
	if u.Host == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(u.Hostname()), p.prefix)
}

// sitePrefix drops the top level domain, www.google.com gives
// "www.google." so regional redirects like www.google.es still match.
func sitePrefix(probeURL string) string {
	u, err := url.Parse(probeURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if i := strings.LastIndex(host, "."); i > 0 {
		return host[:i+1]
	}
	return host
}
