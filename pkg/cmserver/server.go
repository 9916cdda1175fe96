// Package cmserver runs the local HTTP listener that accepts mission codes
// for publishing. One endpoint, POST /publish_codeless; everything else is
// rejected. Parse and publish failures are reported in the response body
// with status 200 so dumb clients can display them, matching the tool's
// established wire behavior.
package cmserver

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/infilengine/cmpush/pkg/cmcode"
	"github.com/infilengine/cmpush/pkg/cmrepo"
	"github.com/infilengine/cmpush/pkg/cmterm"
)

// DefaultPort is the listener port when none is configured.
const DefaultPort = 47362

// bodyLimit caps the request body read. Codes top out well below this.
const bodyLimit = 200_000

// Publisher commits a parsed mission code to a repository.
type Publisher interface {
	Publish(ctx context.Context, code *cmcode.Code) (*cmrepo.Result, error)
	RemoteURL(ctx context.Context, code *cmcode.Code) (string, error)
}

// Config holds listener settings.
type Config struct {
	Port    int
	HideURL bool
}

// Server is the publish listener lifecycle.
type Server struct {
	log       *cmterm.Log
	publisher Publisher
	cfg       Config

	// OnPublished runs after every successful publish, before the response
	// is written. Optional.
	OnPublished func(*cmrepo.Result)

	server   *http.Server
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewServer creates a listener that logs to log and publishes through
// publisher.
func NewServer(log *cmterm.Log, publisher Publisher, cfg Config) *Server {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	return &Server{
		log:       log,
		publisher: publisher,
		cfg:       cfg,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Handler builds the route table. Exposed for request tests.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.HandleMethodNotAllowed = true

	r.POST("/publish_codeless", s.handlePublish)

	r.NoRoute(func(c *gin.Context) {
		s.log.Errorf("Received request to invalid endpoint '%s'", c.Request.URL.Path)
		c.Status(http.StatusBadRequest)
	})
	r.NoMethod(func(c *gin.Context) {
		s.log.Errorf("Received request to /publish_codeless of invalid HTTP method '%s'", c.Request.Method)
		c.Status(http.StatusBadRequest)
	})

	return r
}

// Run starts the listener and blocks until Stop or a listen failure.
func (s *Server) Run() error {
	addr := net.JoinHostPort("localhost", strconv.Itoa(s.cfg.Port))
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.log.Successf("Started Server on %s", addr)

	select {
	case <-s.stopChan:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.log.Errorf("Server shutdown error: %v", err)
		}
	case err := <-errCh:
		close(s.doneChan)
		return errors.Wrap(err, "publish listener failed")
	}

	close(s.doneChan)
	return nil
}

// Stop requests a graceful shutdown. Safe to call more than once.
func (s *Server) Stop() {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
}

// Done closes once the listener has fully stopped.
func (s *Server) Done() <-chan struct{} {
	return s.doneChan
}

// softError reports a request-level failure in the body of a 200 response.
func softError(c *gin.Context, msg string) {
	c.String(http.StatusOK, msg)
}

func (s *Server) handlePublish(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, bodyLimit+1))
	if err != nil {
		s.log.Errorf("Error occurred whilst reading request body to internal buffer:\n%v", err)
		softError(c, "error reading request body to internal buffer")
		return
	}
	if len(body) > bodyLimit {
		s.log.Errorf("Request body exceeds the %d byte limit", bodyLimit)
		softError(c, "request body too large")
		return
	}
	if !utf8.Valid(body) {
		s.log.Error("Request body was not a valid UTF-8 string")
		softError(c, "error converting request body to string")
		return
	}

	s.log.Info("Got POST request to /publish_codeless with valid string body")

	code, err := cmcode.Parse(string(body))
	if err != nil {
		s.log.Errorf("Request body was not a valid custom mission code, with reason:\n%v", err)
		softError(c, fmt.Sprintf("error '%v' encountered while parsing mission code", err))
		return
	}

	ctx := cmterm.WithLog(context.Background(), s.log)

	s.log.Successf(
		"Parsed sent mission code, details are as follows:\nVersion: %d\nGist File: %s\nGist URL: %s\nGist Remote: %s\nFeature Count: %d\nFeatures: [%s]",
		code.FormatVersion,
		code.GistFile,
		s.displayURL(ctx, code),
		remoteDisplay(code.GistRemote),
		len(code.Features),
		code.FeatureDisplay(),
	)

	s.log.Info("Attempting to commit to repo...")
	result, err := s.publisher.Publish(ctx, code)
	if err != nil {
		s.log.Error(err.Error())
		softError(c, fmt.Sprintf("error '%v' encountered while publishing mission code", err))
		return
	}

	if result.Tracked {
		s.log.Successf("Successfully pushed mission version %d!", result.Version)
	} else {
		s.log.Success("Successfully pushed untracked mission!")
	}

	if s.OnPublished != nil {
		s.OnPublished(result)
	}

	c.String(http.StatusOK, result.RawURL)
}

// displayURL resolves the gist URL for logging, masked when configured.
func (s *Server) displayURL(ctx context.Context, code *cmcode.Code) string {
	url := code.GistURL
	if url == "" {
		resolved, err := s.publisher.RemoteURL(ctx, code)
		if err != nil {
			s.log.Warnf("Could not resolve URL of remote %s: %v", code.GistRemote, err)
			return "<unknown>"
		}
		url = resolved
	}
	if s.cfg.HideURL {
		return strings.Repeat("*", len(url))
	}
	return url
}

func remoteDisplay(remote string) string {
	if remote == "" {
		return "None"
	}
	return remote
}
