package gist

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/requester"
	"github.com/go-pkgz/requester/middleware"
)

// defaults for client configuration
const (
	defaultBaseURL    = "https://api.github.com/gists"
	defaultPasteURL   = "https://nekobin.com"
	defaultAPIVersion = "2022-11-28"
	defaultTimeout    = 5 * time.Second
	defaultRetryCount = 2
	defaultRetryDelay = 500 * time.Millisecond
)

// Client is a GitHub Gists API client. Configuration is immutable after New,
// the client is safe for concurrent use.
type Client struct {
	baseURL    string
	retryCount int
	retryDelay time.Duration
	requester  *requester.Requester
	paste      *pasteClient
	logger     lgr.L
}

// clientConfig holds configuration options during client construction.
type clientConfig struct {
	token      string
	tokenFile  string
	apiVersion string
	baseURL    string
	pasteURL   string
	timeout    time.Duration
	retryCount int
	retryDelay time.Duration
	httpClient *http.Client
	logger     lgr.L
}

// Option is a functional option for configuring the client.
type Option func(*clientConfig)

// WithToken sets the Bearer token for authentication. Takes precedence over
// any file or environment token source, format is not checked.
func WithToken(token string) Option {
	return func(cfg *clientConfig) {
		cfg.token = token
	}
}

// WithTokenFile reads the Bearer token from a file. The trimmed content must
// be a github personal access token (ghp_ prefix).
func WithTokenFile(path string) Option {
	return func(cfg *clientConfig) {
		cfg.tokenFile = path
	}
}

// WithTimeout sets the single-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *clientConfig) {
		cfg.timeout = timeout
	}
}

// WithRetry configures retry behavior: count extra attempts after the first
// one, delay slept after every attempt.
func WithRetry(count int, delay time.Duration) Option {
	return func(cfg *clientConfig) {
		cfg.retryCount = count
		cfg.retryDelay = delay
	}
}

// WithAPIVersion overrides the X-GitHub-Api-Version header value.
func WithAPIVersion(version string) Option {
	return func(cfg *clientConfig) {
		cfg.apiVersion = version
	}
}

// WithBaseURL overrides the gists API base URL, mostly for tests.
func WithBaseURL(baseURL string) Option {
	return func(cfg *clientConfig) {
		cfg.baseURL = baseURL
	}
}

// WithPasteURL overrides the paste service base URL used by GetWithPaste.
func WithPasteURL(baseURL string) Option {
	return func(cfg *clientConfig) {
		cfg.pasteURL = baseURL
	}
}

// WithHTTPClient sets a custom http.Client.
// Note: when using WithHTTPClient, the WithTimeout option has no effect
// since timeout is configured on the http.Client directly.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = client
	}
}

// WithLogger sets the logger, default is no logging.
func WithLogger(l lgr.L) Option {
	return func(cfg *clientConfig) {
		cfg.logger = l
	}
}

// New creates a gists client. The token is resolved once here, from the
// explicit options first and the environment after, and held for the client's
// lifetime.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		baseURL:    defaultBaseURL,
		pasteURL:   defaultPasteURL,
		timeout:    defaultTimeout,
		retryCount: defaultRetryCount,
		retryDelay: defaultRetryDelay,
		logger:     lgr.NoOp,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.retryCount < 0 {
		return nil, errf(KindInvalidArgument, nil, "retry count must be non-negative, got %d", cfg.retryCount)
	}
	if cfg.retryDelay < 0 {
		return nil, errf(KindInvalidArgument, nil, "retry delay must be non-negative, got %v", cfg.retryDelay)
	}

	token, err := resolveToken(cfg.token, cfg.tokenFile)
	if err != nil {
		return nil, err
	}

	apiVersion := cfg.apiVersion
	if apiVersion == "" {
		apiVersion = os.Getenv(envAPIVersion)
	}
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.timeout}
	}

	rq := requester.New(*httpClient,
		middleware.Header("Accept", "application/vnd.github+json"),
		middleware.Header("X-GitHub-Api-Version", apiVersion),
		middleware.Header("Authorization", "Bearer "+token),
	)

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.baseURL, "/"),
		retryCount: cfg.retryCount,
		retryDelay: cfg.retryDelay,
		requester:  rq,
		paste:      newPasteClient(strings.TrimSuffix(cfg.pasteURL, "/"), httpClient),
		logger:     cfg.logger,
	}, nil
}
