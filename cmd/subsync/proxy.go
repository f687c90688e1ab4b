package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/dmitrymomot/subsync/pkg/gate"
	"github.com/dmitrymomot/subsync/pkg/identity"
	"github.com/dmitrymomot/subsync/pkg/logger"
)

// newUpstreamProxy forwards gated requests to the protected application.
// The path is forwarded in the cleaned form the gate decided on. The
// resolved user id travels in X-Auth-User; any inbound value is dropped.
func newUpstreamProxy(raw string, log *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(raw)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid UPSTREAM_URL %q", raw)
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = gate.CleanPath(pr.In.URL.Path)
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Header.Del("X-Auth-User")
			if id := identity.UserIDFromContext(pr.In.Context()); id != "" {
				pr.Out.Header.Set("X-Auth-User", id)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.ErrorContext(r.Context(), "upstream request failed", logger.Component("proxy"), logger.Error(err))
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return proxy, nil
}
