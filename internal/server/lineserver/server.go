package lineserver

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebalduf/netkv/internal/telemetry/logger"
)

// Config holds the line protocol server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// Workers is the size of the processing pool (default: 4).
	Workers int
	// IdleTimeout is the timeout for idle connections (default: 5m).
	IdleTimeout time.Duration
	// WriteTimeout is the timeout for writing a reply (default: 30s).
	WriteTimeout time.Duration
	// RateLimit is the maximum number of commands per second per IP.
	// Set to 0 to disable rate limiting.
	RateLimit int
	// MaxKeyLen and MaxValueLen bound the accepted field sizes; longer
	// fields are silently truncated.
	MaxKeyLen   int
	MaxValueLen int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "127.0.0.1:8080",
		Workers:      4,
		IdleTimeout:  5 * time.Minute,
		WriteTimeout: 30 * time.Second,
		RateLimit:    0,
		MaxKeyLen:    255,
		MaxValueLen:  767,
	}
}

// Server is the text protocol server. Accepted connections are armed
// with a watcher goroutine that posts one readiness notification to
// the shared ready queue; a fixed pool of workers drains the queue,
// processes buffered lines, and re-arms the connection.
type Server struct {
	cfg     *Config
	handler *CommandHandler
	log     logger.Logger

	ln       net.Listener
	ready    chan *Conn
	limiters *limiterRegistry

	connMu sync.Mutex
	conns  map[*Conn]struct{}

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	metrics connMetrics
}

// connMetrics is the slice of the metric registry the server touches.
// Kept as an interface so tests can run without a registry.
type connMetrics interface {
	ConnOpened()
	ConnClosed()
}

type nopConnMetrics struct{}

func (nopConnMetrics) ConnOpened() {}
func (nopConnMetrics) ConnClosed() {}

// New creates a line protocol server.
func New(cfg *Config, handler *CommandHandler, log logger.Logger, metrics connMetrics) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if log == nil {
		log = logger.Default()
	}
	if metrics == nil {
		metrics = nopConnMetrics{}
	}

	return &Server{
		cfg:      cfg,
		handler:  handler,
		log:      log,
		ready:    make(chan *Conn),
		limiters: newLimiterRegistry(cfg.RateLimit),
		conns:    make(map[*Conn]struct{}),
		done:     make(chan struct{}),
		metrics:  metrics,
	}
}

// Start binds the listener and launches the worker pool and acceptor.
// It returns once the listener is bound; serving continues in the
// background until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)

	s.log.Info("line server listening", "address", ln.Addr().String(), "workers", s.cfg.Workers)

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.worker()
		}()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx); err != nil && s.running.Load() {
			s.log.Error("accept loop error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Shutdown stops accepting, closes every live connection, and waits
// for the pool to drain.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	close(s.done)

	s.connMu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.connMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		c := newConn(nc, s.limiters.get(nc.RemoteAddr()))
		s.register(c)
		s.log.Debug("connection accepted", "conn_id", c.ID(), "remote", c.RemoteAddr().String())

		s.arm(c)
	}
}

func (s *Server) register(c *Conn) {
	s.connMu.Lock()
	s.conns[c] = struct{}{}
	s.connMu.Unlock()
	s.metrics.ConnOpened()
}

func (s *Server) deregister(c *Conn) {
	s.connMu.Lock()
	_, ok := s.conns[c]
	delete(s.conns, c)
	s.connMu.Unlock()
	if ok {
		s.metrics.ConnClosed()
	}
}

// arm spawns the connection's watcher. The watcher performs exactly
// one blocking read and posts the connection to the ready queue; it
// never touches the connection again afterwards, so whichever worker
// receives the notification has exclusive ownership.
func (s *Server) arm(c *Conn) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if s.cfg.IdleTimeout > 0 {
			_ = c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		n, err := c.netConn.Read(c.readBuf)
		c.readN = n
		c.readErr = err

		select {
		case s.ready <- c:
		case <-s.done:
			s.teardown(c)
		}
	}()
}

// worker drains the ready queue. Processing one notification covers
// every complete line buffered so far; partial trailing data stays in
// the connection buffer for the next round.
func (s *Server) worker() {
	for {
		select {
		case c := <-s.ready:
			s.process(c)
		case <-s.done:
			return
		}
	}
}

func (s *Server) process(c *Conn) {
	if c.readN > 0 {
		c.buf.Write(c.readBuf[:c.readN])
	}

	if c.buf.Len() > s.maxLineLen() && !c.hasLine() {
		s.log.Warn("line length limit exceeded", "conn_id", c.ID(), "remote", c.RemoteAddr().String())
		s.teardown(c)
		return
	}

	for {
		line, ok := c.nextLine()
		if !ok {
			break
		}

		if c.limiter != nil && !c.limiter.Allow() {
			if !s.reply(c, replyRateExceeded) {
				s.teardown(c)
				return
			}
			continue
		}

		resp, quit := s.handler.Handle(line)
		if !s.reply(c, resp) {
			s.teardown(c)
			return
		}
		if quit {
			s.log.Debug("client quit", "conn_id", c.ID())
			s.teardown(c)
			return
		}
	}

	if c.readErr != nil {
		if !isExpectedClose(c.readErr) {
			s.log.Debug("connection read error", "conn_id", c.ID(), "error", c.readErr)
		}
		s.teardown(c)
		return
	}

	s.arm(c)
}

// reply writes one response line and flushes it. Returns false when
// the write failed and the connection should be torn down.
func (s *Server) reply(c *Conn, resp string) bool {
	if s.cfg.WriteTimeout > 0 {
		_ = c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := c.bw.WriteString(resp); err != nil {
		return false
	}
	if err := c.bw.WriteByte('\n'); err != nil {
		return false
	}
	return c.bw.Flush() == nil
}

func (s *Server) teardown(c *Conn) {
	s.deregister(c)
	_ = c.Close()
}

// maxLineLen bounds a single buffered line: a command word, a key, a
// value, a TTL token, and separators.
func (s *Server) maxLineLen() int {
	return s.cfg.MaxKeyLen + s.cfg.MaxValueLen + 64
}

func isExpectedClose(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
