package registry

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/n9te9/go-graphql-rest-gateway/gateway"
)

// BuildFunc builds a gateway handler wired to the given upstreams.
type BuildFunc func(gateway.Upstreams) (http.Handler, error)

// Registry holds the applied gateway and replaces it when upstreams are
// re-registered. In-flight requests keep the handler they started with.
type Registry struct {
	currentGateway atomic.Value
	upstreams      atomic.Value
	nextGateway    chan registration
	build          BuildFunc
	validate       *validator.Validate
	logger         *slog.Logger
}

func NewRegistry(initial gateway.Upstreams, initializeGateway http.Handler, build BuildFunc, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		nextGateway: make(chan registration),
		build:       build,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("component", "registry"),
	}
	r.currentGateway.Store(initializeGateway)
	r.upstreams.Store(initial)

	return r
}

type registration struct {
	handler   http.Handler
	upstreams gateway.Upstreams
	applied   chan struct{}
}

// Start applies registered gateways until ctx is done.
func (r *Registry) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case next := <-r.nextGateway:
			r.currentGateway.Store(next.handler)
			r.upstreams.Store(next.upstreams)
			close(next.applied)
		}
	}
}

func (r *Registry) AppliedGateway() http.Handler {
	return r.currentGateway.Load().(http.Handler)
}

func (r *Registry) AppliedUpstreams() gateway.Upstreams {
	return r.upstreams.Load().(gateway.Upstreams)
}

func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.AppliedGateway().ServeHTTP(w, req)
}

func (r *Registry) RegisterUpstreams(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var upstreams gateway.Upstreams
	if err := json.NewDecoder(req.Body).Decode(&upstreams); err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if err := r.validate.Struct(upstreams); err != nil {
		http.Error(w, "Invalid upstreams: "+err.Error(), http.StatusBadRequest)
		return
	}

	nextGateway, err := r.build(upstreams)
	if err != nil {
		r.logger.Error("failed to generate next gateway", "error", err)
		http.Error(w, "Failed to generate next gateway", http.StatusInternalServerError)
		return
	}

	previous := r.AppliedUpstreams()
	next := registration{handler: nextGateway, upstreams: upstreams, applied: make(chan struct{})}
	select {
	case r.nextGateway <- next:
	case <-req.Context().Done():
		http.Error(w, "Registration cancelled", http.StatusServiceUnavailable)
		return
	}
	<-next.applied
	r.logger.Info("upstreams registered",
		"posts", upstreams.Posts,
		"comments", upstreams.Comments,
		"previous_posts", previous.Posts,
		"previous_comments", previous.Comments)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(upstreams)
}
