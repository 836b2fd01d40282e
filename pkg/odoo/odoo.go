package odoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/rpc"
	"net/url"
	"strings"
	"time"

	"github.com/kolo/xmlrpc"
)

const (
	commonEndpoint = "/xmlrpc/2/common"
	objectEndpoint = "/xmlrpc/2/object"
)

var (
	// ErrAccessDenied is returned when the ERP rejects the identity used for a call.
	ErrAccessDenied = errors.New("odoo: access denied")
	// ErrFault wraps any other XML-RPC fault raised by the server.
	ErrFault = errors.New("odoo: fault")
)

var authFaultMarkers = []string{
	"accessdenied",
	"access denied",
	"sessionexpired",
	"session expired",
	"status code - 401",
	"status code - 403",
}

type Config struct {
	URL      string        `split_words:"true" default:"http://localhost:8069"`
	Database string        `split_words:"true" default:"postgres"`
	Timeout  time.Duration `split_words:"true" default:"15s"`
}

// Identity is what every object call sends to the ERP.
type Identity struct {
	Database string
	UserID   int64
	Password string
}

// Client talks to an Odoo server over its XML-RPC endpoints.
type Client struct {
	baseURL   string
	database  string
	timeout   time.Duration
	transport http.RoundTripper
}

type Option func(*Client)

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

func New(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("odoo url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid odoo url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := &Client{
		baseURL:   baseURL,
		database:  strings.TrimSpace(cfg.Database),
		timeout:   timeout,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	c, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultDatabase is the database used when credentials do not name one.
func (c *Client) DefaultDatabase() string {
	return c.database
}

// Authenticate returns the user id for the login, or 0 when the server
// answers false.
func (c *Client) Authenticate(ctx context.Context, database, login, password string) (int64, error) {
	var reply any
	args := []any{database, login, password, map[string]any{}}
	if err := c.call(ctx, commonEndpoint, "authenticate", args, &reply); err != nil {
		return 0, err
	}
	uid, ok := asInt64(reply)
	if !ok {
		return 0, nil
	}
	return uid, nil
}

// ExecuteKw runs model.method through the object endpoint.
func (c *Client) ExecuteKw(ctx context.Context, id Identity, model, method string, args []any, kwargs map[string]any, reply any) error {
	params := []any{id.Database, id.UserID, id.Password, model, method, args}
	if kwargs != nil {
		params = append(params, kwargs)
	}
	return c.call(ctx, objectEndpoint, "execute_kw", params, reply)
}

func (c *Client) call(ctx context.Context, endpoint, method string, args []any, reply any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// A failed HTTP exchange shuts an rpc.Client down, so each call gets its own.
	// The codec sends the request inline in Go, so the deadline has to ride on
	// the HTTP request itself.
	rc, err := xmlrpc.NewClient(c.baseURL+endpoint, ctxTransport{ctx: ctx, next: c.transport})
	if err != nil {
		return fmt.Errorf("odoo: dial %s: %w", endpoint, err)
	}
	defer rc.Close()

	call := rc.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return fmt.Errorf("odoo: %s: %w", method, ctx.Err())
	case done := <-call.Done:
		if done.Error != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("odoo: %s: %w", method, ctxErr)
			}
			return classify(method, done.Error)
		}
		return nil
	}
}

// ctxTransport binds every request it sends to ctx.
type ctxTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}

func classify(method string, err error) error {
	msg := err.Error()
	var fault xmlrpc.FaultError
	if errors.As(err, &fault) {
		msg = fault.String
	}

	var serverErr rpc.ServerError
	isFault := errors.As(err, &fault) || errors.As(err, &serverErr)

	lower := strings.ToLower(msg)
	for _, marker := range authFaultMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: %s", ErrAccessDenied, firstLine(msg))
		}
	}
	if isFault {
		return fmt.Errorf("%w: %s: %s", ErrFault, method, firstLine(msg))
	}
	return fmt.Errorf("odoo: %s: %w", method, err)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// IsAuthFault reports whether err means the ERP no longer accepts the identity.
func IsAuthFault(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
