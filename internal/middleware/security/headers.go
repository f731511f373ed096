package security

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Directive is one Content-Security-Policy directive and its sources.
type Directive struct {
	Name    string
	Sources []string
}

type HeadersConfig struct {
	CSP []Directive

	// HSTS is only sent over TLS.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool

	FrameOptions      string
	ReferrerPolicy    string
	PermissionsPolicy string
}

// DefaultHeadersConfig allows same-origin content only, plus htmx from unpkg.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP: []Directive{
			{"default-src", []string{"'self'"}},
			{"script-src", []string{"'self'", "https://unpkg.com"}},
			{"style-src", []string{"'self'"}},
			{"img-src", []string{"'self'", "data:"}},
			{"connect-src", []string{"'self'"}},
			{"object-src", []string{"'none'"}},
			{"frame-ancestors", []string{"'none'"}},
			{"base-uri", []string{"'self'"}},
			{"form-action", []string{"'self'"}},
		},
		HSTSMaxAge:            365 * 24 * 60 * 60,
		HSTSIncludeSubdomains: true,
		FrameOptions:          "DENY",
		ReferrerPolicy:        "same-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
	}
}

// HeadersMiddleware stamps a fixed set of response headers computed once
// from its config.
type HeadersMiddleware struct {
	static http.Header
	hsts   string
}

func NewHeadersMiddleware(cfg HeadersConfig) *HeadersMiddleware {
	static := http.Header{}
	static.Set("X-Content-Type-Options", "nosniff")
	static.Set("Cross-Origin-Opener-Policy", "same-origin")
	static.Set("Cross-Origin-Resource-Policy", "same-origin")
	if cfg.FrameOptions != "" {
		static.Set("X-Frame-Options", cfg.FrameOptions)
	}
	if cfg.ReferrerPolicy != "" {
		static.Set("Referrer-Policy", cfg.ReferrerPolicy)
	}
	if cfg.PermissionsPolicy != "" {
		static.Set("Permissions-Policy", cfg.PermissionsPolicy)
	}
	if csp := buildCSP(cfg.CSP); csp != "" {
		static.Set("Content-Security-Policy", csp)
	}

	var hsts string
	if cfg.HSTSMaxAge > 0 {
		hsts = fmt.Sprintf("max-age=%d", cfg.HSTSMaxAge)
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	return &HeadersMiddleware{static: static, hsts: hsts}
}

func buildCSP(directives []Directive) string {
	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		if len(d.Sources) == 0 {
			continue
		}
		parts = append(parts, d.Name+" "+strings.Join(d.Sources, " "))
	}
	return strings.Join(parts, "; ")
}

func (h *HeadersMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for name, values := range h.static {
			dst[name] = append([]string(nil), values...)
		}
		if r.TLS != nil && h.hsts != "" {
			dst.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// SameOrigin rejects state-changing requests whose Origin header names a
// different host. Requests without an Origin header pass through.
func SameOrigin(onReject func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if origin := r.Header.Get("Origin"); origin != "" {
				u, err := url.Parse(origin)
				if err != nil || !strings.EqualFold(u.Host, r.Host) {
					onReject(w, r)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// StaticAssetMiddleware marks embedded assets cacheable for maxAge seconds.
func StaticAssetMiddleware(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore keeps pages showing a user's figures out of shared caches.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
