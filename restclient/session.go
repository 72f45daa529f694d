// Package restclient is the Controller Client (spec.md §4.A): one
// authenticated HTTPS session to one controller, typed JSON GET/POST/
// PUT/DELETE, retry/rate-limit handling, and long-task polling.
//
// Its shape is adapted from the teacher's datastore/target.Target
// interface — a single-session-per-remote object behind a factory — but
// narrowed to the one REST transport this engine speaks (the teacher's
// Target had one implementation per southbound protocol: gNMI, NETCONF,
// Redis, NATS).
package restclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/cisco-open/sastre-engine/internal/errs"
	"github.com/cisco-open/sastre-engine/internal/sdwanconfig"
)

// Session is the authenticated connection to one controller. Single-tenant
// or multi-tenant (the latter sets the VSessionId/tenant header derived
// from cfg.Tenant).
type Session struct {
	cfg    *sdwanconfig.Config
	http   *retryablehttp.Client
	limit  *rate.Limiter
	log    *log.Entry
	token  string // CSRF/XSRF token captured at login
	jsessionID string
}

// New builds a Session against cfg. It does not dial; call Login to
// authenticate.
func New(cfg *sdwanconfig.Config, logger *log.Entry) *Session {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3 // transient network errors: up to 3 retries, linear backoff (spec.md §4.A)
	rc.RetryWaitMin = 1 * time.Second
	rc.RetryWaitMax = 5 * time.Second
	rc.Backoff = retryablehttp.LinearJitterBackoff
	rc.Logger = nil // logging is our own, via s.log
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.HTTPClient.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS}, //nolint:gosec // documented default, spec.md §4.A
	}
	jar, _ := cookiejar.New(nil) // holds the session cookie Login receives
	rc.HTTPClient.Jar = jar
	// CheckRetry is overridden so only transient network errors retry here;
	// 429 is handled separately by the adaptive backoff in retry.go, since
	// it has its own cap (60s, 5 tries) distinct from the 3-try linear
	// policy for connect/read-timeout errors.
	rc.CheckRetry = transientOnlyRetryPolicy

	return &Session{
		cfg:   cfg,
		http:  rc,
		limit: rate.NewLimiter(rate.Every(10*time.Millisecond), 20),
		log:   logger,
	}
}

// Login authenticates and captures the session cookie plus CSRF token, per
// the controller's two-step login flow.
func (s *Session) Login(ctx context.Context) error {
	form := url.Values{"j_username": {s.cfg.User}, "j_password": {s.cfg.Password}}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.BaseURL()+"/j_security_check", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := s.doRaw(req)
	if err != nil {
		return errs.New(errs.ConnectionError, "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errs.New(errs.AuthError, "", fmt.Errorf("login rejected: %d", resp.StatusCode))
	}

	tokenResp, err := s.GetRaw(ctx, "/client/token")
	if err != nil {
		return errs.New(errs.AuthError, "", fmt.Errorf("fetch xsrf token: %w", err))
	}
	s.token = strings.TrimSpace(string(tokenResp))
	return nil
}

// Logout invalidates the session server-side. Best-effort: callers are
// expected to tear down the process regardless of its outcome.
func (s *Session) Logout(ctx context.Context) error {
	_, err := s.do(ctx, http.MethodPost, "/logout", nil, "")
	return err
}

func (s *Session) endpoint(path string) string {
	base := s.cfg.BaseURL() + "/dataservice"
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// GetJSON issues GET path and decodes the response body into out.
func (s *Session) GetJSON(ctx context.Context, path string, out interface{}) error {
	body, err := s.GetRaw(ctx, path)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// GetRaw issues GET path and returns the raw response body.
func (s *Session) GetRaw(ctx context.Context, path string) ([]byte, error) {
	return s.do(ctx, http.MethodGet, path, nil, "")
}

// PostJSON issues POST path with body and decodes the response into out
// (out may be nil for endpoints with no meaningful response body).
func (s *Session) PostJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := s.do(ctx, http.MethodPost, path, raw, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(resp) == 0 {
		return nil
	}
	return json.Unmarshal(resp, out)
}

// PutJSON issues PUT path with body.
func (s *Session) PutJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := s.do(ctx, http.MethodPut, path, raw, "application/json")
	if err != nil {
		return err
	}
	if out == nil || len(resp) == 0 {
		return nil
	}
	return json.Unmarshal(resp, out)
}

// Delete issues DELETE path.
func (s *Session) Delete(ctx context.Context, path string) error {
	_, err := s.do(ctx, http.MethodDelete, s.endpoint(path), nil, "")
	return err
}

func (s *Session) do(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	endpoint := path
	if !strings.HasPrefix(path, "http") {
		endpoint = s.endpoint(path)
	}
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.token != "" {
		req.Header.Set("X-XSRF-TOKEN", s.token)
	}
	if s.cfg.Tenant != "" {
		req.Header.Set("VSessionId", s.cfg.Tenant)
	}
	return s.doWithRateLimit(ctx, req)
}

func (s *Session) doRaw(req *retryablehttp.Request) (*http.Response, error) {
	return s.http.Do(req)
}
