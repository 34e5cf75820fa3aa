package middleware

import (
	"net"
	"net/http"
	"net/url"
	"slices"

	"github.com/go-chi/cors"
)

// viteDevPort is where the dashboard's dev server listens
const viteDevPort = "5173"

// DashboardCORS lets the dashboard at frontendURL call the collection
// triggers and summary reads. A loopback frontend also admits the other
// loopback name and the Vite dev server.
func DashboardCORS(frontendURL string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: dashboardOrigins(frontendURL),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	})
}

func dashboardOrigins(frontendURL string) []string {
	u, err := url.Parse(frontendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return []string{frontendURL}
	}
	origins := []string{u.Scheme + "://" + u.Host}

	host, port := u.Hostname(), u.Port()
	if host != "localhost" && !net.ParseIP(host).IsLoopback() {
		return origins
	}
	if port == "" {
		port = "80"
	}
	for _, p := range []string{port, viteDevPort} {
		for _, h := range []string{"localhost", "127.0.0.1"} {
			o := u.Scheme + "://" + net.JoinHostPort(h, p)
			if !slices.Contains(origins, o) {
				origins = append(origins, o)
			}
		}
	}
	return origins
}
