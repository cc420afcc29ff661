package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"go.uber.org/zap"

	"GlobalStore/pkg/kit"
)

// NewReverseProxy forwards requests to target unchanged, keeping the
// incoming path. Upstream failures become 502.
func NewReverseProxy(target string, log *zap.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse proxy target: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parse proxy target: %q is not absolute", target)
	}
	log = kit.OrNop(log)

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.Out.Host = u.Host
			pr.Out.Header.Del("Cookie")
			pr.Out.Header.Del("Authorization")
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn("proxy upstream failed", zap.String("target", u.Host), zap.String("path", r.URL.Path), zap.Error(err))
			kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", nil)
		},
	}, nil
}
