// Package telemetry serves the engine's display state over HTTP and a
// websocket, and accepts control commands in place of the touch screen.
//
//	GET  /status      latest snapshot as JSON
//	GET  /algorithms  algorithm names in selection order
//	GET  /spectrum    output spectrum in dBFS (?ch=0|1)
//	POST /control     one Command
//	GET  /ws          snapshot stream; commands may be sent back
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/emeb/S3GTA/dsp/spectrum"
	"github.com/emeb/S3GTA/engine"
)

// Spectrum is the /spectrum response.
type Spectrum struct {
	Channel int       `json:"channel"`
	BinHz   float64   `json:"bin_hz"`
	DB      []float64 `json:"db"`
}

// Server is the telemetry endpoint. Publish is called by the foreground
// poll loop; handlers run on fasthttp's goroutines.
type Server struct {
	ctl Controller
	log logrus.FieldLogger

	tap        func(dst []int16) int
	sampleRate float64

	specMu   sync.Mutex
	analyzer *spectrum.Analyzer
	tapBuf   []int16
	bins     []float64

	status atomic.Pointer[[]byte]
	hub    hub

	srv *fasthttp.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTap enables /spectrum over an output history source such as
// engine.Pipeline.Tap.
func WithTap(tap func(dst []int16) int, sampleRate float64) Option {
	return func(s *Server) {
		s.tap = tap
		s.sampleRate = sampleRate
	}
}

// New creates a server driving ctl.
func New(ctl Controller, opts ...Option) (*Server, error) {
	s := &Server{
		ctl: ctl,
		log: logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.tap != nil {
		a, err := spectrum.NewAnalyzer(engine.TapFrames)
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}

		s.analyzer = a
		s.tapBuf = make([]int16, 2*engine.TapFrames)
		s.bins = make([]float64, a.Bins())
	}

	s.hub.init()
	s.srv = &fasthttp.Server{
		Handler: s.Handler,
		Name:    "s3gta",
	}

	return s, nil
}

// Publish records a snapshot for /status and pushes it to every websocket
// client. Slow clients miss updates rather than stalling the caller.
func (s *Server) Publish(snap engine.Snapshot) error {
	body, err := json.Marshal(struct {
		Type string `json:"type"`
		engine.Snapshot
	}{"status", snap})
	if err != nil {
		return fmt.Errorf("telemetry: encode snapshot: %w", err)
	}

	s.status.Store(&body)
	s.hub.broadcast(body)

	return nil
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int { return s.hub.len() }

// Handler routes a request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/status":
		s.handleStatus(ctx)
	case "/algorithms":
		s.writeJSON(ctx, s.ctl.Algorithms())
	case "/spectrum":
		s.handleSpectrum(ctx)
	case "/control":
		s.handleControl(ctx)
	case "/ws":
		s.handleWebsocket(ctx)
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	body := s.status.Load()
	if body == nil {
		ctx.Error("no snapshot yet", fasthttp.StatusServiceUnavailable)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(*body)
}

func (s *Server) handleSpectrum(ctx *fasthttp.RequestCtx) {
	if s.analyzer == nil {
		ctx.Error("spectrum disabled", fasthttp.StatusNotFound)
		return
	}

	ch := ctx.QueryArgs().GetUintOrZero("ch")
	if ch > 1 {
		ctx.Error("ch must be 0 or 1", fasthttp.StatusBadRequest)
		return
	}

	s.specMu.Lock()
	n := s.tap(s.tapBuf)
	err := s.analyzer.Analyze(s.bins, s.tapBuf[:n], ch)
	resp := Spectrum{
		Channel: ch,
		BinHz:   s.analyzer.BinHz(1, s.sampleRate),
		DB:      append([]float64(nil), s.bins...),
	}
	s.specMu.Unlock()

	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}

	s.writeJSON(ctx, resp)
}

func (s *Server) handleControl(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.Error("POST only", fasthttp.StatusMethodNotAllowed)
		return
	}

	reply, err := s.control(context.Background(), ctx.PostBody())

	ctx.SetContentType("application/json")
	ctx.SetBody(reply)

	switch {
	case err == nil:
	case errors.Is(err, context.DeadlineExceeded):
		ctx.SetStatusCode(fasthttp.StatusGatewayTimeout)
	default:
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
	}
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.WithField("addr", ln.Addr().String()).Info("telemetry listening")

	return s.srv.Serve(ln)
}

// ListenAndServe listens on addr and serves until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("telemetry: listen: %w", err)
	}

	return s.Serve(ln)
}

// Shutdown disconnects websocket clients and stops the server.
func (s *Server) Shutdown() error {
	s.hub.close()

	return s.srv.Shutdown()
}
