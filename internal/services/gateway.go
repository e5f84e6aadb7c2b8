package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dailycast/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultEndpoint string = "http://localhost:8080/query"

// TokenHolder is the part of the token store the gateway needs: it reads the token and clears it on forced logout.
type TokenHolder interface {
	Get() (string, bool)
	Clear()
}

// Operation describes a single GraphQL request.
//
// Anonymous operations (login, signup) are sent without a bearer credential and never end the session.
type Operation struct {
	Name      string
	Query     string
	Variables map[string]any
	Anonymous bool
}

// GatewayConfig configures a [Gateway]. Zero values fall back to defaults.
type GatewayConfig struct {
	Endpoint string
	Client   *http.Client

	// RequestsPerSecond limits outbound requests. Zero or less disables the limit.
	RequestsPerSecond float64
	Burst             int
}

// Gateway sends every remote operation, attaches the session credential and classifies outcomes.
//
// An [AuthRejected] outcome clears the token store and notifies every handler registered with [Gateway.OnAuthRejected].
type Gateway struct {
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     TokenHolder
	logger     *log.Logger

	mu       sync.Mutex
	handlers []func()
}

// NewGateway creates a gateway that reads credentials from tokens.
func NewGateway(cfg GatewayConfig, tokens TokenHolder, logger *log.Logger) *Gateway {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if logger == nil {
		logger = log.Default()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Gateway{
		endpoint:   cfg.Endpoint,
		httpClient: cfg.Client,
		limiter:    rate.NewLimiter(limit, burst),
		tokens:     tokens,
		logger:     logger,
	}
}

// Endpoint returns the URL operations are posted to.
func (g *Gateway) Endpoint() string {
	return g.endpoint
}

// OnAuthRejected registers fn to run after the token has been cleared by a forced logout.
// Handlers run on the goroutine that executed the rejected operation.
func (g *Gateway) OnAuthRejected(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers = append(g.handlers, fn)
}

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Execute sends op and decodes its data object into out, which may be nil.
//
// Failures are returned as [*GatewayError].
func (g *Gateway) Execute(ctx context.Context, op Operation, out any) error {
	err := g.execute(ctx, op, out)
	if err == nil {
		return nil
	}

	var gwErr *GatewayError
	if errors.As(err, &gwErr) && gwErr.Outcome == AuthRejected {
		g.forceLogout(op.Name)
	}
	return err
}

func (g *Gateway) execute(ctx context.Context, op Operation, out any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return transportError(op.Name, 0, fmt.Errorf("rate limiter: %w", err))
	}

	body, err := json.Marshal(graphqlRequest{Query: op.Query, OperationName: op.Name, Variables: op.Variables})
	if err != nil {
		return transportError(op.Name, 0, fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return transportError(op.Name, 0, fmt.Errorf("failed to create request: %w", err))
	}

	requestID := shared.GenerateID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	client := g.httpClient
	if token, ok := g.tokens.Get(); ok && !op.Anonymous {
		client = g.authorized(token)
	}

	g.logger.Debug("sending operation", "op", op.Name, "request_id", requestID, "anonymous", op.Anonymous)

	resp, err := client.Do(req)
	if err != nil {
		return transportError(op.Name, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(op.Name, resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return authError(op, resp.StatusCode, []string{strings.TrimSpace(string(raw))}, nil)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		var envelope graphqlResponse
		if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Errors) > 0 {
			return classifyErrors(op, resp.StatusCode, envelope.Errors)
		}
		return &GatewayError{
			Outcome:   ValidationRejected,
			Operation: op.Name,
			Status:    resp.StatusCode,
			Messages:  []string{strings.TrimSpace(string(raw))},
		}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return transportError(op.Name, resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return transportError(op.Name, resp.StatusCode, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(envelope.Errors) > 0 {
		return classifyErrors(op, resp.StatusCode, envelope.Errors)
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return transportError(op.Name, resp.StatusCode, errors.New("response carried no data"))
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return transportError(op.Name, resp.StatusCode, fmt.Errorf("failed to decode data: %w", err))
		}
	}

	return nil
}

// authorized returns a client that attaches token as a bearer credential on top of the configured transport.
func (g *Gateway) authorized(token string) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	c := *g.httpClient
	c.Transport = &oauth2.Transport{Source: src, Base: g.httpClient.Transport}
	return &c
}

func (g *Gateway) forceLogout(op string) {
	g.logger.Warn("session rejected by server, logging out", "op", op)
	g.tokens.Clear()

	g.mu.Lock()
	handlers := append([]func(){}, g.handlers...)
	g.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

func transportError(op string, status int, err error) *GatewayError {
	return &GatewayError{Outcome: TransportFailure, Operation: op, Status: status, Err: err}
}

// authError builds an auth rejection. Anonymous operations carry no credential, so a rejection
// there is about the submitted input and never ends the session.
func authError(op Operation, status int, messages []string, fields map[string]string) *GatewayError {
	outcome := AuthRejected
	if op.Anonymous {
		outcome = ValidationRejected
	}
	return &GatewayError{Outcome: outcome, Operation: op.Name, Status: status, Messages: messages, Fields: fields}
}

func classifyErrors(op Operation, status int, errs []graphqlError) *GatewayError {
	messages := make([]string, 0, len(errs))
	fields := make(map[string]string)
	auth := false

	for _, e := range errs {
		messages = append(messages, e.Message)
		if isAuthError(e) {
			auth = true
		}
		if field := errorField(e); field != "" {
			fields[field] = e.Message
		}
	}

	if len(fields) == 0 {
		fields = nil
	}

	if auth {
		return authError(op, status, messages, fields)
	}
	return &GatewayError{
		Outcome:   ValidationRejected,
		Operation: op.Name,
		Status:    status,
		Messages:  messages,
		Fields:    fields,
	}
}

var authMessages = []string{
	"not authenticated",
	"unauthenticated",
	"unauthorized",
	"invalid token",
	"token expired",
	"token is expired",
	"token has expired",
}

func isAuthError(e graphqlError) bool {
	if code, ok := e.Extensions["code"].(string); ok {
		switch strings.ToUpper(code) {
		case "UNAUTHENTICATED", "FORBIDDEN":
			return true
		}
	}

	msg := strings.ToLower(e.Message)
	for _, m := range authMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// errorField names the input a validation error refers to: extensions.field first, then the last path element.
// A single-element path only names the root field of the operation, so it is ignored.
func errorField(e graphqlError) string {
	if field, ok := e.Extensions["field"].(string); ok && field != "" {
		return field
	}
	if len(e.Path) > 1 {
		if field, ok := e.Path[len(e.Path)-1].(string); ok {
			return field
		}
	}
	return ""
}
