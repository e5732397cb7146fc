package server

import "net/http"

// withPrefix serves h below prefix only. An empty prefix serves h at the root.
// A bare prefix is redirected to prefix/ by the mux.
func withPrefix(h http.Handler, prefix string) http.Handler {
	if prefix == "" {
		return h
	}
	mux := http.NewServeMux()
	mux.Handle(prefix+"/", http.StripPrefix(prefix, h))
	return mux
}
