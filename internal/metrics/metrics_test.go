package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func getFreeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)
	addr := l.Addr().String()
	assert.NoError(t, l.Close())
	return addr
}

func TestServerStartStop(t *testing.T) {
	addr := getFreeAddr(t)

	s, err := Start(addr)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	assert.NoError(t, Register(prometheus.DefaultRegisterer))
	IncRecords(1)

	url := fmt.Sprintf("http://%s/metrics", addr)
	deadline := time.Now().Add(3 * time.Second)
	var resp *http.Response
	for time.Now().Before(deadline) {
		resp, err = http.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	assert.NotNil(t, resp)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	r := bufio.NewReader(resp.Body)
	found := false
	for {
		line, rerr := r.ReadString('\n')
		if strings.Contains(line, "linescan_records_total") {
			found = true
			break
		}
		if rerr != nil {
			break
		}
	}
	assert.True(t, found)
}

func TestStopNilServer(t *testing.T) {
	var s *Server
	assert.NoError(t, s.Stop())
}
