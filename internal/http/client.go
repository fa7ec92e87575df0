package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

const tracerName = "github.com/fivetwenty-io/foundation-client/internal/http"

// Response is a transport response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	URL        string
}

// Client posts multipart forms to the API.
type Client struct {
	baseURL      string
	client       *retryablehttp.Client
	logger       foundation.Logger
	debug        bool
	userAgent    string
	interceptors *foundation.InterceptorChain
	limiter      *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger foundation.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.HTTPClient.Timeout = timeout
		}
	}
}

// WithRetryConfig enables transport retries.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.client.RetryMax = retryMax
		c.client.RetryWaitMin = waitMin
		c.client.RetryWaitMax = waitMax
	}
}

// WithInterceptors runs chain around every POST.
func WithInterceptors(chain *foundation.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithRateLimit allows at most limit requests per second with bursts of burst.
// Requests wait for a token before being sent.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			return
		}

		if burst < 1 {
			burst = 1
		}

		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithHTTPClient sends requests through a copy of httpClient.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			clone := *httpClient
			c.client.HTTPClient = &clone
		}
	}
}

// NewClient creates a transport posting to baseURL. Retries are disabled
// unless WithRetryConfig is given; non-2xx responses are returned, not failed.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 0
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:   baseURL,
		client:    retryClient,
		userAgent: constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.client.RequestLogHook = client.logAttempt

	return client
}

// BaseURL returns the URL paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// URL resolves path against the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + strings.TrimPrefix(path, "/")
}

// PostForm posts form to path as multipart/form-data. Only transport
// failures are returned as errors.
func (c *Client) PostForm(ctx context.Context, path string, form *Form) (*Response, error) {
	target := c.URL(path)
	requestID := uuid.NewString()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "foundation.post",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.url", target),
			attribute.String("foundation.request_id", requestID),
			attribute.Int("foundation.files", len(form.Files())),
		),
	)
	defer span.End()

	if c.limiter != nil {
		err := c.limiter.Wait(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return nil, &foundation.TransportError{URL: target, Message: err.Error(), Err: err}
		}
	}

	intercepted := c.interceptedRequest(path, form)

	if c.interceptors != nil {
		err := c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return nil, &foundation.TransportError{URL: target, Message: err.Error(), Err: err}
		}
	}

	body, contentType, err := encodeMultipart(form, intercepted.Fields)
	if err != nil {
		return nil, &foundation.TransportError{URL: target, Message: err.Error(), Err: err}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, &foundation.TransportError{URL: target, Message: err.Error(), Err: err}
	}

	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", constants.AcceptMediaType)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	for key, values := range intercepted.Headers {
		req.Header.Del(key)

		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":     http.MethodPost,
			"url":        target,
			"request_id": requestID,
			"fields":     len(intercepted.Fields),
			"files":      len(intercepted.Files),
		})
	}

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.runResponseInterceptors(ctx, intercepted, &foundation.Response{Error: err})

		return nil, &foundation.TransportError{URL: target, Message: err.Error(), Err: err}
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, &foundation.TransportError{
			URL:     target,
			Code:    resp.StatusCode,
			Message: "reading response body: " + err.Error(),
			Err:     err,
		}
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":     resp.StatusCode,
			"url":        target,
			"request_id": requestID,
			"bytes":      len(respBody),
		})
	}

	c.runResponseInterceptors(ctx, intercepted, &foundation.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	})

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
		URL:        target,
	}, nil
}

func (c *Client) interceptedRequest(path string, form *Form) *foundation.Request {
	files := form.Files()
	names := make([]string, 0, len(files))

	for _, file := range files {
		names = append(names, file.Field)
	}

	return &foundation.Request{
		Method:   http.MethodPost,
		Path:     path,
		Headers:  make(http.Header),
		Fields:   form.Values(),
		Files:    names,
		Metadata: make(map[string]interface{}),
	}
}

func (c *Client) runResponseInterceptors(ctx context.Context, req *foundation.Request, resp *foundation.Response) {
	if c.interceptors == nil {
		return
	}

	err := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil && c.logger != nil {
		c.logger.Warn("response interceptor failed", map[string]interface{}{"error": err.Error()})
	}
}

func (c *Client) logAttempt(_ retryablehttp.Logger, req *http.Request, attempt int) {
	if attempt == 0 || c.logger == nil {
		return
	}

	c.logger.Warn("HTTP Retry", map[string]interface{}{
		"url":        req.URL.String(),
		"attempt":    attempt,
		"request_id": req.Header.Get("X-Request-ID"),
	})
}

// encodeMultipart writes the form fields in order, then any fields added by
// interceptors sorted by name, then the file parts.
func encodeMultipart(form *Form, values map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)
	written := make(map[string]bool, len(values))

	for _, field := range form.Fields() {
		value, ok := values[field.Name]
		if !ok {
			continue
		}

		err := writer.WriteField(field.Name, value)
		if err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", field.Name, err)
		}

		written[field.Name] = true
	}

	extra := make([]string, 0)

	for name := range values {
		if !written[name] {
			extra = append(extra, name)
		}
	}

	sort.Strings(extra)

	for _, name := range extra {
		err := writer.WriteField(name, values[name])
		if err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", name, err)
		}
	}

	for _, file := range form.Files() {
		err := writeFile(writer, file)
		if err != nil {
			return nil, "", err
		}
	}

	err := writer.Close()
	if err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func writeFile(writer *multipart.Writer, file File) error {
	filename := file.Filename
	if filename == "" {
		filename = file.Field
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(file.Field), escapeQuotes(filename)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("creating form file %s: %w", file.Field, err)
	}

	_, err = part.Write(file.Content)
	if err != nil {
		return fmt.Errorf("writing file %s to form: %w", file.Field, err)
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
