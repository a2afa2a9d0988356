package httpserver

import (
	"net/http"
	"time"
)

const writeSlack = 5 * time.Second

// New builds the API server. The write timeout always leaves room past the
// case transition timeout so a slow conditional update can still answer
// "outcome unknown" instead of dropping the connection.
func New(addr string, handler http.Handler, transitionTimeout time.Duration) *http.Server {
	write := 30 * time.Second
	if transitionTimeout+writeSlack > write {
		write = transitionTimeout + writeSlack
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      write,
		IdleTimeout:       60 * time.Second,
	}
}
