package task

import (
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/cisco-open/sastre-engine/internal/sdwanconfig"
	"github.com/cisco-open/sastre-engine/restclient"
)

// newTestSession builds a restclient.Session pointed at an httptest
// server, mirroring restclient/retry_test.go's helper but through
// exported API only (task is a different package).
func newTestSession(t *testing.T, srv *httptest.Server) *restclient.Session {
	t.Helper()
	addrPort := srv.Listener.Addr().String()
	host, portStr, err := splitHostPort(addrPort)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	cfg := &sdwanconfig.Config{Address: host, Port: port, Timeout: 5 * time.Second}
	return restclient.New(cfg, log.NewEntry(log.New()))
}

func splitHostPort(hostport string) (string, string, error) {
	for i := len(hostport) - 1; i >= 0; i-- {
		if hostport[i] == ':' {
			return hostport[:i], hostport[i+1:], nil
		}
	}
	return hostport, "", nil
}
