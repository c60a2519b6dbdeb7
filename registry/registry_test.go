package registry_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/n9te9/go-graphql-rest-gateway/gateway"
	"github.com/n9te9/go-graphql-rest-gateway/registry"
)

func namedHandler(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, name)
	})
}

func startRegistry(t *testing.T, build registry.BuildFunc) *registry.Registry {
	t.Helper()
	initial := gateway.Upstreams{Posts: "http://localhost:8080", Comments: "http://localhost:8081"}
	reg := registry.NewRegistry(initial, namedHandler("initial"), build, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go reg.Start(ctx)

	return reg
}

func serve(h http.Handler, method, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, "/", strings.NewReader(body)))
	return w
}

func TestRegistry_RegisterUpstreams(t *testing.T) {
	var built []gateway.Upstreams
	reg := startRegistry(t, func(u gateway.Upstreams) (http.Handler, error) {
		built = append(built, u)
		return namedHandler("next:" + u.Posts), nil
	})

	if got := serve(reg, http.MethodPost, "").Body.String(); got != "initial" {
		t.Fatalf("applied gateway = %q, want initial", got)
	}

	w := serve(http.HandlerFunc(reg.RegisterUpstreams), http.MethodPost,
		`{"posts":"http://posts.internal:9000","comments":"http://comments.internal:9001"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	want := gateway.Upstreams{Posts: "http://posts.internal:9000", Comments: "http://comments.internal:9001"}
	if diff := cmp.Diff([]gateway.Upstreams{want}, built); diff != "" {
		t.Errorf("built upstreams mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, reg.AppliedUpstreams()); diff != "" {
		t.Errorf("applied upstreams mismatch (-want +got):\n%s", diff)
	}
	if got := serve(reg, http.MethodPost, "").Body.String(); got != "next:http://posts.internal:9000" {
		t.Errorf("applied gateway = %q after registration", got)
	}
}

func TestRegistry_RegisterUpstreams_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		buildErr   error
		wantStatus int
	}{
		{
			name:       "method not allowed",
			method:     http.MethodGet,
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "malformed body",
			method:     http.MethodPost,
			body:       `{"posts":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing comments",
			method:     http.MethodPost,
			body:       `{"posts":"http://localhost:8080"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "not a url",
			method:     http.MethodPost,
			body:       `{"posts":"posts","comments":"http://localhost:8081"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "build failure",
			method:     http.MethodPost,
			body:       `{"posts":"http://localhost:8080","comments":"http://localhost:8081"}`,
			buildErr:   errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := startRegistry(t, func(u gateway.Upstreams) (http.Handler, error) {
				if tt.buildErr != nil {
					return nil, tt.buildErr
				}
				return namedHandler("next"), nil
			})

			w := serve(http.HandlerFunc(reg.RegisterUpstreams), tt.method, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := serve(reg, http.MethodPost, "").Body.String(); got != "initial" {
				t.Errorf("applied gateway = %q, want initial", got)
			}
		})
	}
}
