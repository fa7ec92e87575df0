package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
	fdhttp "github.com/fivetwenty-io/foundation-client/internal/http"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func (l *MockLogger) messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.logs))
	for _, entry := range l.logs {
		out = append(out, entry["msg"].(string))
	}

	return out
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_PostForm(t *testing.T) {
	t.Parallel()

	t.Run("sends ordered multipart fields", func(t *testing.T) {
		t.Parallel()

		var order []string

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "/api/3/Widget/42", request.URL.Path)
			assert.Equal(t, "application/vnd.api+json", request.Header.Get("Accept"))
			assert.NotEmpty(t, request.Header.Get("X-Request-ID"))

			reader, err := request.MultipartReader()
			require.NoError(t, err)

			for {
				part, err := reader.NextPart()
				if err == io.EOF {
					break
				}

				require.NoError(t, err)
				order = append(order, part.FormName())
			}

			_, _ = writer.Write([]byte(`{"data":{}}`))
		}))
		defer server.Close()

		client := fdhttp.NewClient(server.URL + "/api/3/")

		form := fdhttp.NewForm()
		form.Set("apikey", "k")
		form.Set("action0", "getName")
		form.Set("arg0", "x")

		resp, err := client.PostForm(context.Background(), "Widget/42", form)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"data":{}}`, string(resp.Body))
		assert.Equal(t, []string{"apikey", "action0", "arg0"}, order)
	})

	t.Run("sends file parts", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			require.NoError(t, request.ParseMultipartForm(constants.DefaultMaxMultipartMemory))

			file, header, err := request.FormFile("document")
			require.NoError(t, err)

			defer func() { _ = file.Close() }()

			content, err := io.ReadAll(file)
			require.NoError(t, err)

			assert.Equal(t, "report.pdf", header.Filename)
			assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
			assert.Equal(t, "%PDF", string(content))
			assert.Equal(t, "upload", request.FormValue("action0"))

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := fdhttp.NewClient(server.URL + "/")

		form := fdhttp.NewForm()
		form.Set("action0", "upload")
		form.Attach(fdhttp.File{
			Field:       "document",
			Filename:    "report.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF"),
		})

		resp, err := client.PostForm(context.Background(), "Widget", form)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("passes error statuses through", func(t *testing.T) {
		t.Parallel()

		var calls int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			atomic.AddInt32(&calls, 1)
			writer.WriteHeader(http.StatusInternalServerError)
			_, _ = writer.Write([]byte(`{"error":{"title":"Boom"}}`))
		}))
		defer server.Close()

		client := fdhttp.NewClient(server.URL + "/")

		resp, err := client.PostForm(context.Background(), "", fdhttp.NewForm())
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Contains(t, string(resp.Body), "Boom")
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("retries when configured", func(t *testing.T) {
		t.Parallel()

		var calls int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				writer.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			_, _ = writer.Write([]byte(`{}`))
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := fdhttp.NewClient(server.URL+"/",
			fdhttp.WithLogger(logger),
			fdhttp.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond),
		)

		resp, err := client.PostForm(context.Background(), "", fdhttp.NewForm())
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
		assert.Contains(t, logger.messages(), "HTTP Retry")
	})

	t.Run("connection failure is a transport error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		client := fdhttp.NewClient(url + "/")

		_, err := client.PostForm(context.Background(), "Widget", fdhttp.NewForm())
		require.Error(t, err)
		assert.True(t, foundation.IsTransport(err))
	})
}

func TestClient_Options(t *testing.T) {
	t.Parallel()

	t.Run("rate limit waits for a token", func(t *testing.T) {
		t.Parallel()

		var calls int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			atomic.AddInt32(&calls, 1)
			_, _ = writer.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := fdhttp.NewClient(server.URL+"/", fdhttp.WithRateLimit(rate.Every(time.Hour), 1))

		_, err := client.PostForm(context.Background(), "", fdhttp.NewForm())
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = client.PostForm(ctx, "", fdhttp.NewForm())
		require.Error(t, err)
		assert.True(t, foundation.IsTransport(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_, _ = writer.Write([]byte(`{}`))
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := fdhttp.NewClient(server.URL+"/", fdhttp.WithLogger(logger), fdhttp.WithDebug(true))

		_, err := client.PostForm(context.Background(), "", fdhttp.NewForm())
		require.NoError(t, err)

		messages := logger.messages()
		assert.Contains(t, messages, "HTTP Request")
		assert.Contains(t, messages, "HTTP Response")
	})

	t.Run("user agent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-agent/1.0", request.Header.Get("User-Agent"))
		}))
		defer server.Close()

		client := fdhttp.NewClient(server.URL+"/", fdhttp.WithUserAgent("custom-agent/1.0"))

		_, err := client.PostForm(context.Background(), "", fdhttp.NewForm())
		require.NoError(t, err)
	})

	t.Run("interceptors add headers and fields", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			require.NoError(t, request.ParseMultipartForm(constants.DefaultMaxMultipartMemory))
			assert.Equal(t, "tenant-a", request.Header.Get("X-Tenant"))
			assert.Equal(t, "web", request.FormValue("source"))
			assert.Equal(t, "staged", request.FormValue("action0"))
		}))
		defer server.Close()

		var seen int32

		chain := foundation.NewInterceptorChain()
		chain.AddRequestInterceptor(foundation.HeaderInterceptor(map[string]string{"X-Tenant": "tenant-a"}))
		chain.AddRequestInterceptor(foundation.FieldInterceptor(map[string]string{"source": "web", "action0": "ignored"}))
		chain.AddResponseInterceptor(func(ctx context.Context, req *foundation.Request, resp *foundation.Response) error {
			atomic.AddInt32(&seen, 1)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			return nil
		})

		client := fdhttp.NewClient(server.URL+"/", fdhttp.WithInterceptors(chain))

		form := fdhttp.NewForm()
		form.Set("action0", "staged")

		_, err := client.PostForm(context.Background(), "", form)
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&seen))
	})
}

func TestForm(t *testing.T) {
	t.Parallel()

	form := fdhttp.NewForm()
	form.Set("a", "1")
	form.Set("b", "2")
	form.Set("a", "3")

	value, ok := form.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "3", value)
	assert.Equal(t, []fdhttp.Field{{Name: "a", Value: "3"}, {Name: "b", Value: "2"}}, form.Fields())

	clone := form.Clone()
	clone.Set("c", "4")
	assert.False(t, form.Has("c"))
	assert.True(t, clone.Has("c"))
}
