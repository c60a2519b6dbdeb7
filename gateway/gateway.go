package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/graphql-go/graphql"
	"github.com/n9te9/go-graphql-rest-gateway/metrics"
	"github.com/n9te9/go-graphql-rest-gateway/upstream"
)

// Upstreams are the base URLs of the backing services.
type Upstreams struct {
	Posts    string `yaml:"posts" json:"posts" validate:"required,url"`
	Comments string `yaml:"comments" json:"comments" validate:"required,url"`
}

type GatewayOption struct {
	Endpoint    string `yaml:"endpoint" validate:"startswith=/"`
	ServiceName string `yaml:"service_name"`
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	// TimeoutDuration bounds each upstream call. Empty means no timeout.
	TimeoutDuration             string               `yaml:"timeout_duration"`
	EnableHangOverRequestHeader bool                 `yaml:"enable_hang_over_request_header"`
	EnableComplementRequestID   bool                 `yaml:"enable_complement_request_id"`
	EnablePlayground            bool                 `yaml:"enable_playground"`
	MaxQueryDepth               int                  `yaml:"max_query_depth" validate:"gte=0"`
	Pagination                  PaginationOption     `yaml:"pagination"`
	Upstreams                   Upstreams            `yaml:"upstreams"`
	Retry                       upstream.RetryOption `yaml:"retry"`
}

type gateway struct {
	engine     *executionEngine
	playground http.Handler
	logger     *slog.Logger

	maxQueryDepth               int
	enableComplementRequestID   bool
	enableHangOverRequestHeader bool
}

var _ http.Handler = (*gateway)(nil)

type options struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	transport http.RoundTripper
}

type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTransport sets the round tripper used for upstream calls, e.g. an otelhttp
// transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

func NewGateway(settings GatewayOption, opts ...Option) (*gateway, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	httpClient := &http.Client{Transport: o.transport}
	if settings.TimeoutDuration != "" {
		d, err := time.ParseDuration(settings.TimeoutDuration)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout_duration %q: %w", settings.TimeoutDuration, err)
		}
		httpClient.Timeout = d
	}

	posts, err := upstream.NewClient("posts", settings.Upstreams.Posts, httpClient, settings.Retry, o.metrics)
	if err != nil {
		return nil, err
	}
	comments, err := upstream.NewClient("comments", settings.Upstreams.Comments, httpClient, settings.Retry, o.metrics)
	if err != nil {
		return nil, err
	}

	return newGateway(settings, posts, comments, o.logger)
}

func newGateway(settings GatewayOption, posts PostsAPI, comments CommentsAPI, logger *slog.Logger) (*gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	engine, err := buildEngine(settings, posts, comments)
	if err != nil {
		return nil, err
	}

	endpoint := settings.Endpoint
	if endpoint == "" {
		endpoint = "/graphql"
	}

	g := &gateway{
		engine:                      engine,
		logger:                      logger.With("component", "gateway", "service", settings.ServiceName),
		maxQueryDepth:               settings.MaxQueryDepth,
		enableComplementRequestID:   settings.EnableComplementRequestID,
		enableHangOverRequestHeader: settings.EnableHangOverRequestHeader,
	}
	if settings.EnablePlayground {
		g.playground = playground.Handler("GraphQL Playground", endpoint)
	}

	return g, nil
}

type graphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

func (g *gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req graphQLRequest
	switch r.Method {
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrors(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}
	case http.MethodGet:
		q := r.URL.Query()
		if q.Get("query") == "" && g.playground != nil {
			g.playground.ServeHTTP(w, r)
			return
		}
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				writeErrors(w, http.StatusBadRequest, "invalid variables", "BAD_REQUEST")
				return
			}
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	requestID := r.Header.Get(upstream.RequestIDHeader)
	if requestID == "" && g.enableComplementRequestID {
		requestID = uuid.NewString()
	}
	if requestID != "" {
		w.Header().Set(upstream.RequestIDHeader, requestID)
		ctx = upstream.SetRequestIDToContext(ctx, requestID)
	}
	if g.enableHangOverRequestHeader {
		ctx = upstream.SetRequestHeaderToContext(ctx, r.Header)
	}

	if err := g.validateQueryDepth(req.Query); err != nil {
		writeErrors(w, http.StatusOK, err.Error(), "QUERY_TOO_DEEP")
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         g.engine.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
	if len(result.Errors) > 0 {
		g.logger.Debug("query resolved with errors",
			"request_id", requestID,
			"errors", len(result.Errors),
			"first", result.Errors[0].Message)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func writeErrors(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]any{
			{
				"message":    message,
				"extensions": map[string]string{"code": code},
			},
		},
	})
}
