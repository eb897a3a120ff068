package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DefaultRESTRoute is the route prefix of the Simple JWT Login REST API.
const DefaultRESTRoute = "/simple-jwt-login/v1"

const (
	requestIDHeader = "X-Request-ID"
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
)

// Client talks to the identity service (a WordPress site running Simple JWT Login).
// Every operation performs exactly one HTTP round-trip and never retries.
type Client struct {
	baseURL    string
	restRoute  string
	authKey    string
	userAgent  string
	httpClient *http.Client
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient *http.Client
	AuthKey    string
	RESTRoute  string
	UserAgent  string
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for identity calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithAuthKey sets the pre-shared application key required by the registration endpoint.
func WithAuthKey(key string) ClientOption {
	return func(opts *ClientOptions) {
		opts.AuthKey = key
	}
}

// WithRESTRoute overrides the Simple JWT Login route prefix.
func WithRESTRoute(route string) ClientOption {
	return func(opts *ClientOptions) {
		opts.RESTRoute = route
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(opts *ClientOptions) {
		opts.UserAgent = ua
	}
}

// NewClient creates a client for the identity service rooted at baseURL
// (for example "https://example.com"). An http.Client with a 10s timeout
// is created when one is not supplied.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.RESTRoute == "" {
		opts.RESTRoute = DefaultRESTRoute
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		restRoute:  "/" + strings.Trim(opts.RESTRoute, "/"),
		authKey:    opts.AuthKey,
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
	}
}

// endpoint builds the request URL for route, which the plugin expects in the
// rest_route query parameter rather than in the path.
func (c *Client) endpoint(route string, params url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid identity service URL: %w", err)
	}
	q := u.Query()
	q.Set("rest_route", c.restRoute+"/"+strings.TrimLeft(route, "/"))
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// bearerClient wraps the configured HTTP client so the token travels in the
// Authorization header as well as in the JWT parameter.
func (c *Client) bearerClient(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return oauth2.NewClient(ctx, source)
}

// envelope is the common response shape of the plugin. Successful auth calls
// nest their payload under data, registration puts it at the top level.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`

	JWT   string          `json:"jwt"`
	User  json.RawMessage `json:"user"`
	Roles []string        `json:"roles"`
}

type failurePayload struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"errorCode"`
}

// call performs one request. On a non-2xx status or success=false the
// returned error is an *Error whose Kind is chosen by classify.
func (c *Client) call(
	ctx context.Context,
	hc *http.Client,
	op, method, route string,
	params url.Values,
	body any,
	classify func(status int, msg string) error,
) (*envelope, error) {
	endpoint, err := c.endpoint(route, params)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrNetwork, Err: err}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrNetwork, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrNetwork, Status: resp.StatusCode, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 500 {
		return nil, &Error{Op: op, Kind: ErrNetwork, Status: resp.StatusCode, Message: failureMessage(&env), Err: fmt.Errorf("identity service returned %s", resp.Status)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || (decodeErr == nil && !env.Success) {
		fail := failure(&env)
		return nil, &Error{
			Op:      op,
			Kind:    classify(resp.StatusCode, fail.Message),
			Status:  resp.StatusCode,
			Code:    fail.ErrorCode,
			Message: fail.Message,
		}
	}

	if decodeErr != nil {
		return nil, &Error{Op: op, Kind: ErrNetwork, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", decodeErr)}
	}

	return &env, nil
}

func failure(env *envelope) failurePayload {
	var fp failurePayload
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &fp)
	}
	if fp.Message == "" {
		fp.Message = env.Message
	}
	return fp
}

func failureMessage(env *envelope) string {
	return failure(env).Message
}
