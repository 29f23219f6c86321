package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"portal-client/internal/domain"
)

const (
	// RequestIDHeader carries a per-call correlation id.
	RequestIDHeader = "X-Request-ID"

	logoutPath = "/auth/logout/"
	tracerName = "portal-client/gateway"
)

var emptyObject = json.RawMessage("{}")

// Config is the subset of client configuration the gateway needs.
type Config struct {
	RootURL         string
	APIPrefix       string
	CSRFHeader      string
	CSRFCookieNames []string
}

// Gateway implements domain.Requester over a shared, cookie-carrying http.Client.
type Gateway struct {
	cfg     Config
	client  *http.Client
	csrf    domain.CSRFSource
	limiter *rate.Limiter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithRateLimiter throttles outgoing calls on the client side.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(g *Gateway) { g.limiter = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithTracerProvider sets the tracer provider used for request spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(g *Gateway) {
		if tp != nil {
			g.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates a Gateway. csrf may be nil, in which case no token is attached.
func New(cfg Config, httpClient *http.Client, csrf domain.CSRFSource, opts ...Option) *Gateway {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	g := &Gateway{
		cfg:    cfg,
		client: httpClient,
		csrf:   csrf,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do sends one backend call. Success yields a Result; every failure is an *domain.APIError,
// except for an invalid descriptor.
func (g *Gateway) Do(ctx context.Context, rd domain.RequestDescriptor) (*domain.Result, error) {
	if err := rd.Validate(); err != nil {
		return nil, err
	}

	method := rd.NormalizedMethod()
	target := g.ResolveURL(rd.Path)

	ctx, span := g.tracer.Start(ctx, "portal.api "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", target),
		),
	)
	defer span.End()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, g.fail(span, domain.NewNetworkError(err))
		}
	}

	body, contentType, err := encodeBody(rd)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, g.fail(span, domain.NewNetworkError(err))
	}

	for key, values := range rd.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	if domain.IsStateChanging(method) && g.csrf != nil {
		if token, ok := g.csrf.Acquire(ctx); ok {
			req.Header.Set(g.cfg.CSRFHeader, token)
		} else {
			g.logger.WarnContext(ctx, "csrf token unavailable, sending request without it",
				"method", method, "path", rd.Path)
		}
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
		req.Header.Set(RequestIDHeader, requestID)
	}
	span.SetAttributes(attribute.String("request.id", requestID))
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.ErrorContext(ctx, "api request failed", "method", method, "url", target, "request_id", requestID, "error", err)
		return nil, g.fail(span, domain.NewNetworkError(err))
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	g.observeCSRFCookies(resp)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, g.fail(span, domain.NewNetworkError(err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		g.logger.DebugContext(ctx, "api request completed", "method", method, "url", target, "status", resp.StatusCode)
		return &domain.Result{Status: resp.StatusCode, Body: successBody(resp, raw)}, nil
	}

	// An already-expired session is a successful logout.
	if resp.StatusCode == http.StatusUnauthorized && strings.Contains(rd.Path, logoutPath) {
		g.logger.InfoContext(ctx, "logout returned 401, treating as success")
		return &domain.Result{Status: resp.StatusCode, Body: emptyObject}, nil
	}

	if resp.StatusCode == http.StatusForbidden && g.csrf != nil {
		g.csrf.Invalidate()
	}

	apiErr := domain.NewAPIError(resp.StatusCode, http.StatusText(resp.StatusCode), raw)
	g.logger.WarnContext(ctx, "api error",
		"method", method,
		"url", target,
		"request_id", requestID,
		"status", resp.StatusCode,
		"errors", apiErr.Errors,
	)
	return nil, g.fail(span, apiErr)
}

func (g *Gateway) fail(span trace.Span, err *domain.APIError) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Text)
	return err
}

// observeCSRFCookies keeps the held token in sync when the backend rotates the cookie.
func (g *Gateway) observeCSRFCookies(resp *http.Response) {
	if g.csrf == nil {
		return
	}
	for _, c := range resp.Cookies() {
		for _, name := range g.cfg.CSRFCookieNames {
			if c.Name == name && c.Value != "" && c.MaxAge >= 0 {
				g.csrf.Store(c.Value)
				return
			}
		}
	}
}

func successBody(resp *http.Response, raw []byte) json.RawMessage {
	if !isJSON(resp) || len(bytes.TrimSpace(raw)) == 0 || !json.Valid(raw) {
		return emptyObject
	}
	return json.RawMessage(raw)
}

func isJSON(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "application/json")
}

func encodeBody(rd domain.RequestDescriptor) (io.Reader, string, error) {
	switch {
	case rd.Multipart != nil:
		return encodeMultipart(rd.Multipart)
	case rd.JSON != nil:
		b, err := json.Marshal(rd.JSON)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(b), "application/json", nil
	}
	return nil, "", nil
}

func encodeMultipart(body *domain.MultipartBody) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for key, value := range body.Fields {
		if err := mw.WriteField(key, value); err != nil {
			return nil, "", err
		}
	}
	for _, f := range body.Files {
		part, err := mw.CreateFormFile(f.Field, f.FileName)
		if err != nil {
			return nil, "", err
		}
		if f.Content != nil {
			if _, err := io.Copy(part, f.Content); err != nil {
				return nil, "", err
			}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}
