package api

import "net/http"

// allowedOrigins lists the frontends permitted to call the gateway.
var allowedOrigins = map[string]bool{
	"https://taurus.pp.ua":            true,
	"https://eridon-react.vercel.app": true,
	"http://127.0.0.1:5173":           true,
	"http://127.0.0.1:8000":           true,
	"http://localhost:3000":           true,
	"http://127.0.0.1:3000":           true,
}

// CORSMiddleware answers preflight requests and stamps the CORS headers for
// known origins on everything proxied through the gateway.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
