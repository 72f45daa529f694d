package restclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/cisco-open/sastre-engine/internal/errs"
	"github.com/cisco-open/sastre-engine/internal/sdwanconfig"
)

func newTestSession(t *testing.T, srv *httptest.Server) *Session {
	t.Helper()
	addrPort := srv.Listener.Addr().String()
	host, portStr, err := splitHostPort(addrPort)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	cfg := &sdwanconfig.Config{Address: host, Port: port, Timeout: 5 * time.Second}
	logger := log.NewEntry(log.New())
	s := New(cfg, logger)
	s.http.RetryWaitMin = time.Millisecond
	s.http.RetryWaitMax = 2 * time.Millisecond
	s.limit.SetLimit(1000)
	return s
}

func splitHostPort(hostport string) (string, string, error) {
	for i := len(hostport) - 1; i >= 0; i-- {
		if hostport[i] == ':' {
			return hostport[:i], hostport[i+1:], nil
		}
	}
	return hostport, "", nil
}

// TestRateLimitRecovery is the scenario from spec.md §8 #6: two
// consecutive 429s during a request, then success, with no duplicated
// side effect (here: exactly one call ever reaches status 200).
func TestRateLimitRecovery(t *testing.T) {
	var calls int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	var out map[string]bool
	err := s.GetJSON(context.Background(), "/template/policy/list/site", &out)
	require.NoError(t, err)
	require.True(t, out["ok"])
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRateLimitExhausted(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	err := s.GetJSON(context.Background(), "/template/policy/list/site", nil)
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.RateLimitExhausted, e.Kind)
}

func TestAuthErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := newTestSession(t, srv)
	err := s.GetJSON(context.Background(), "/template/policy/list/site", nil)
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errs.AuthError, e.Kind)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls), "401 must not be retried")
}
