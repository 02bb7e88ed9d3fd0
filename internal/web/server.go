// Package web provides an HTTP status server for the color-sensor daemon.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/sweeney/color-sensor/internal/status"
)

// Calibration references accepted by the calibrate endpoints.
const (
	White = "white"
	Black = "black"
)

// ErrUnsupported is returned through CalibrationRequest.Result when the
// active strategy cannot calibrate against the requested reference.
var ErrUnsupported = errors.New("calibration reference not supported by strategy")

// CalibrationRequest asks the run loop to calibrate. The loop sends exactly
// one value on Result. Calibration stops early once Context is done; a nil
// Context never cancels.
type CalibrationRequest struct {
	Context   context.Context
	Reference string
	Result    chan error
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	calib      chan<- CalibrationRequest
}

// New creates a Server that reads state from the given tracker. Calibration
// requests are sent on calib; a nil channel disables them.
func New(addr string, tracker *status.Tracker, calib chan<- CalibrationRequest) *Server {
	s := &Server{tracker: tracker, calib: calib}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/calibrate/white", s.handleCalibrate(White))
	mux.HandleFunc("/calibrate/black", s.handleCalibrate(Black))

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

// handleCalibrate hands the request to the run loop and waits for it to
// finish. Strategy A settles for several seconds, so the wait is bounded
// only by the client's context.
func (s *Server) handleCalibrate(ref string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.calib == nil {
			http.Error(w, "calibration disabled", http.StatusServiceUnavailable)
			return
		}

		req := CalibrationRequest{Context: r.Context(), Reference: ref, Result: make(chan error, 1)}
		select {
		case s.calib <- req:
		case <-r.Context().Done():
			http.Error(w, "calibration busy", http.StatusServiceUnavailable)
			return
		}

		var err error
		select {
		case err = <-req.Result:
		case <-r.Context().Done():
			return
		}

		switch {
		case errors.Is(err, ErrUnsupported):
			http.Error(w, err.Error(), http.StatusNotImplemented)
			return
		case err != nil:
			http.Error(w, "calibrate "+ref+": "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(status.FormatJSON(s.tracker.Snapshot()))
	}
}
