package commands_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
)

const cliCatalog = `{"data":[
	{"type":"Widget","meta":{
		"getters":["getName"],
		"setters":["setName"],
		"actions":{
			"move":{"parameters":[{"name":"x"},{"name":"y"}]},
			"upload":{"parameters":[{"name":"document"},{"name":"label"}]}
		}}},
	{"type":"Gadget","meta":{"getters":[],"setters":[],"actions":[]}}
]}`

type recordedRequest struct {
	Path   string
	Fields map[string]string
	Files  map[string]string
}

type cliServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newCLIServer(t *testing.T) *cliServer {
	t.Helper()

	server := &cliServer{}
	server.Server = httptest.NewServer(http.HandlerFunc(server.handle))
	t.Cleanup(server.Close)

	return server
}

func (s *cliServer) handle(w http.ResponseWriter, r *http.Request) {
	err := r.ParseMultipartForm(constants.DefaultMaxMultipartMemory)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	recorded := recordedRequest{
		Path:   strings.TrimPrefix(r.URL.Path, "/api/3/"),
		Fields: map[string]string{},
		Files:  map[string]string{},
	}

	for name, values := range r.MultipartForm.Value {
		recorded.Fields[name] = values[0]
	}

	for name, headers := range r.MultipartForm.File {
		file, err := headers[0].Open()
		if err == nil {
			content, _ := io.ReadAll(file)
			_ = file.Close()
			recorded.Files[name] = headers[0].Filename + ":" + string(content)
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, recorded)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/vnd.api+json")

	switch {
	case recorded.Path == "":
		_, _ = io.WriteString(w, cliCatalog)
	case recorded.Fields["action1"] != "":
		_, _ = io.WriteString(w, `{"data":[{"ok":true},"gizmo"]}`)
	case recorded.Fields["action0"] == "getName":
		_, _ = io.WriteString(w, `{"data":{"type":"WidgetGetNameResponse","attributes":{"result":"gizmo"}}}`)
	default:
		_, _ = io.WriteString(w, `{"data":{"type":"Widget","attributes":{"ok":true}}}`)
	}
}

// resourceRequests returns every request except discovery.
func (s *cliServer) resourceRequests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	requests := make([]recordedRequest, 0, len(s.requests))

	for _, request := range s.requests {
		if request.Path != "" {
			requests = append(requests, request)
		}
	}

	return requests
}

// useServer points the global CLI configuration at server. Tests using it
// cannot run in parallel.
func useServer(t *testing.T, server *cliServer, settings map[string]interface{}) {
	t.Helper()

	viper.Reset()
	viper.Set("host", server.URL)
	viper.Set("apikey", "secret")
	viper.Set("output", "table")

	for key, value := range settings {
		viper.Set(key, value)
	}

	t.Cleanup(viper.Reset)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))

	// cobra falls back to os.Args for nil args.
	if args == nil {
		args = []string{}
	}

	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), err
}

func requireSingleRequest(t *testing.T, server *cliServer) recordedRequest {
	t.Helper()

	requests := server.resourceRequests()
	require.Len(t, requests, 1)

	return requests[0]
}
