package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// testCatalog declares two resources: Widget exercises every arity, Gadget
// declares nothing and sends its actions as an empty array.
const testCatalog = `{
  "data": [
    {
      "type": "Widget",
      "meta": {
        "getters": ["getName", "getSize"],
        "setters": ["setName"],
        "actions": {
          "doThing": {"parameters": []},
          "rename": {"parameters": [{"name": "name"}]},
          "move": {"parameters": [{"name": "x"}, {"name": "y"}, {"name": "z"}]},
          "upload": {"parameters": [{"name": "document"}, {"name": "label"}]}
        }
      }
    },
    {
      "type": "Gadget",
      "meta": {"getters": [], "setters": [], "actions": []}
    }
  ]
}`

// recordedRequest is one POST as the server saw it.
type recordedRequest struct {
	Path   string
	Header http.Header
	Fields map[string]string
	Files  map[string]recordedFile
}

type recordedFile struct {
	Filename    string
	ContentType string
	Content     string
}

// responder answers a resource call.
type responder func(req recordedRequest) (int, string)

// fixtureServer serves testCatalog at the API root and records every request.
type fixtureServer struct {
	*httptest.Server

	discovery   string
	etag        string
	respond     responder
	discoveries atomic.Int32

	mu       sync.Mutex
	requests []recordedRequest
}

func newFixtureServer(t *testing.T, discovery string, respond responder) *fixtureServer {
	t.Helper()

	fixture := &fixtureServer{discovery: discovery, respond: respond}

	fixture.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		recorded := recordRequest(t, request)

		fixture.mu.Lock()
		fixture.requests = append(fixture.requests, recorded)
		fixture.mu.Unlock()

		writer.Header().Set("Content-Type", constants.AcceptMediaType)

		if request.URL.Path == constants.APIPath {
			fixture.discoveries.Add(1)

			fixture.mu.Lock()
			discovery, etag := fixture.discovery, fixture.etag
			fixture.mu.Unlock()

			if etag != "" {
				writer.Header().Set(constants.HeaderETag, etag)
			}

			_, _ = io.WriteString(writer, discovery)

			return
		}

		status, body := http.StatusOK, `{"data":{}}`
		if fixture.respond != nil {
			status, body = fixture.respond(recorded)
		}

		writer.WriteHeader(status)
		_, _ = io.WriteString(writer, body)
	}))

	t.Cleanup(fixture.Close)

	return fixture
}

func recordRequest(t *testing.T, request *http.Request) recordedRequest {
	t.Helper()

	require.NoError(t, request.ParseMultipartForm(constants.DefaultMaxMultipartMemory))

	recorded := recordedRequest{
		Path:   strings.TrimPrefix(request.URL.Path, constants.APIPath),
		Header: request.Header.Clone(),
		Fields: make(map[string]string),
		Files:  make(map[string]recordedFile),
	}

	for name, values := range request.MultipartForm.Value {
		recorded.Fields[name] = values[0]
	}

	for name, headers := range request.MultipartForm.File {
		file, err := headers[0].Open()
		require.NoError(t, err)

		content, err := io.ReadAll(file)
		require.NoError(t, err)

		_ = file.Close()

		recorded.Files[name] = recordedFile{
			Filename:    headers[0].Filename,
			ContentType: headers[0].Header.Get("Content-Type"),
			Content:     string(content),
		}
	}

	return recorded
}

// SetDiscovery replaces the discovery response.
func (f *fixtureServer) SetDiscovery(discovery string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.discovery = discovery
}

// SetETag makes discovery responses carry etag.
func (f *fixtureServer) SetETag(etag string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.etag = etag
}

// Requests returns the recorded requests.
func (f *fixtureServer) Requests() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]recordedRequest, len(f.requests))
	copy(out, f.requests)

	return out
}

// LastRequest returns the most recent request.
func (f *fixtureServer) LastRequest(t *testing.T) recordedRequest {
	t.Helper()

	requests := f.Requests()
	require.NotEmpty(t, requests)

	return requests[len(requests)-1]
}

// ResourceRequests returns the requests that were not discovery calls.
func (f *fixtureServer) ResourceRequests() []recordedRequest {
	var out []recordedRequest

	for _, request := range f.Requests() {
		if request.Path != "" {
			out = append(out, request)
		}
	}

	return out
}

// NewTestClient creates a client against server with apikey auth.
func NewTestClient(t *testing.T, server *fixtureServer, mutate ...func(*foundation.Config)) *Client {
	t.Helper()

	config := &foundation.Config{
		Host: server.URL,
		Auth: map[string]string{"apikey": "secret"},
	}

	for _, fn := range mutate {
		fn(config)
	}

	client, err := New(context.Background(), config)
	require.NoError(t, err)

	return client
}

// widget returns a Widget handle.
func widget(t *testing.T, client *Client, id string) *Resource {
	t.Helper()

	resource, err := client.Resource(context.Background(), "Widget", id)
	require.NoError(t, err)

	return resource.(*Resource)
}

// actionFields returns the action{i} fields of a request.
func actionFields(fields map[string]string) map[string]string {
	out := make(map[string]string)

	for name, value := range fields {
		if strings.HasPrefix(name, constants.FieldAction) {
			out[name] = value
		}
	}

	return out
}
