package bootstrap

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"rawhttpd/internal/metrics"
	"rawhttpd/internal/registry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) Port() string                  { return m.Called().String(0) }
func (m *MockConfig) RootDir() string               { return m.Called().String(0) }
func (m *MockConfig) ReadTimeout() time.Duration    { return m.Called().Get(0).(time.Duration) }
func (m *MockConfig) MaxConnections() int64         { return m.Called().Get(0).(int64) }
func (m *MockConfig) MaxConnectionsPerHost() int64  { return m.Called().Get(0).(int64) }
func (m *MockConfig) MetricsEnabled() bool          { return m.Called().Bool(0) }
func (m *MockConfig) MetricsPort() string           { return m.Called().String(0) }
func (m *MockConfig) LogLevel() string              { return m.Called().String(0) }
func (m *MockConfig) Development() bool             { return m.Called().Bool(0) }
func (m *MockConfig) Override(port, rootDir string) { m.Called(port, rootDir) }

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Register(conn registry.Conn) bool {
	return m.Called(conn).Bool(0)
}

func (m *MockRegistry) Remove(key registry.Key) {
	m.Called(key)
}

func (m *MockRegistry) GetAllFromHost(host string) []registry.Conn {
	return m.Called(host).Get(0).([]registry.Conn)
}

func (m *MockRegistry) Len() int {
	return m.Called().Int(0)
}

func (m *MockRegistry) CloseAll() error {
	return m.Called().Error(0)
}

func randomAvailablePort() (string, error) {
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return "", err
	}
	defer func(listener net.Listener) {
		_ = listener.Close()
	}(listener)

	mPort := listener.Addr().(*net.TCPAddr).Port
	return strconv.Itoa(mPort), nil
}

func newMockConfig(t *testing.T, port, root string, metricsEnabled bool, metricsPort string) *MockConfig {
	t.Helper()
	mockConfig := &MockConfig{}
	mockConfig.On("Port").Return(port)
	mockConfig.On("RootDir").Return(root)
	mockConfig.On("ReadTimeout").Return(time.Second)
	mockConfig.On("MaxConnections").Return(int64(0))
	mockConfig.On("MaxConnectionsPerHost").Return(int64(0))
	mockConfig.On("MetricsEnabled").Return(metricsEnabled)
	mockConfig.On("MetricsPort").Return(metricsPort)
	mockConfig.On("LogLevel").Return("debug")
	mockConfig.On("Development").Return(true)
	return mockConfig
}

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		root        func(t *testing.T) string
		wantErr     bool
		errContains string
	}{
		{
			name:    "existing root",
			root:    func(t *testing.T) string { return t.TempDir() },
			wantErr: false,
		},
		{
			name:    "root is created",
			root:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "public_html") },
			wantErr: false,
		},
		{
			name: "root is a file",
			root: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "file")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
				return path
			},
			wantErr:     true,
			errContains: "open resource root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := tt.root(t)
			mockConfig := newMockConfig(t, "0", root, false, "0")

			bootstrap, err := New(mockConfig, zaptest.NewLogger(t))

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				assert.Nil(t, bootstrap)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, bootstrap)
			assert.NotNil(t, bootstrap.Store)
			assert.NotNil(t, bootstrap.ConnRegistry)
			assert.NotNil(t, bootstrap.Metrics)
			assert.NotNil(t, bootstrap.Gatherer)
			assert.NotNil(t, bootstrap.Config)
			assert.NotNil(t, bootstrap.ErrChan)
			assert.NotNil(t, bootstrap.SignalChan)
			assert.DirExists(t, root)
		})
	}
}

// newBootstrap logs nowhere: serving goroutines may outlive a subtest.
func newBootstrap(t *testing.T, conf *MockConfig) *Bootstrap {
	t.Helper()
	b, err := New(conf, zap.NewNop())
	require.NoError(t, err)
	return b
}

func runInBackground(b *Bootstrap) chan error {
	done := make(chan error, 1)
	go func() {
		done <- b.Run()
	}()
	return done
}

func dialWhenReady(t *testing.T, addr string) net.Conn {
	t.Helper()
	var conn net.Conn
	require.Eventually(t, func() bool {
		var err error
		conn, err = net.Dial("tcp", addr)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	return conn
}

func TestRun(t *testing.T) {
	t.Run("serves files and stops on signal", func(t *testing.T) {
		port, err := randomAvailablePort()
		require.NoError(t, err)
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<p>hi</p>"), 0o644))

		b := newBootstrap(t, newMockConfig(t, port, root, false, "0"))
		done := runInBackground(b)

		conn := dialWhenReady(t, "localhost:"+port)
		defer conn.Close()
		_, err = conn.Write([]byte("GET /index.html HTTP/1.0\r\n\r\n"))
		require.NoError(t, err)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		raw, err := io.ReadAll(conn)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(raw), "HTTP/1.0 200 OK\r\n"))
		assert.True(t, strings.HasSuffix(string(raw), "\r\n\r\n<p>hi</p>"))

		b.SignalChan <- os.Interrupt
		assert.NoError(t, <-done)
	})

	t.Run("error from HTTP server invalid port", func(t *testing.T) {
		b := newBootstrap(t, newMockConfig(t, "invalid", t.TempDir(), false, "0"))
		err := <-runInBackground(b)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to start http server")
	})

	t.Run("error from metrics server invalid port", func(t *testing.T) {
		port, err := randomAvailablePort()
		require.NoError(t, err)

		b := newBootstrap(t, newMockConfig(t, port, t.TempDir(), true, "invalid"))
		err = <-runInBackground(b)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "metrics server error")
	})

	t.Run("service error", func(t *testing.T) {
		port, err := randomAvailablePort()
		require.NoError(t, err)

		b := newBootstrap(t, newMockConfig(t, port, t.TempDir(), false, "0"))
		done := runInBackground(b)
		b.ErrChan <- fmt.Errorf("disk gone")

		err = <-done
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "disk gone")
	})

	t.Run("signal closes open connections", func(t *testing.T) {
		port, err := randomAvailablePort()
		require.NoError(t, err)

		b := newBootstrap(t, newMockConfig(t, port, t.TempDir(), false, "0"))
		done := runInBackground(b)

		conn := dialWhenReady(t, "localhost:"+port)
		defer conn.Close()
		require.Eventually(t, func() bool { return b.ConnRegistry.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

		b.SignalChan <- os.Interrupt
		assert.NoError(t, <-done)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, err = conn.Read(make([]byte, 1))
		assert.ErrorIs(t, err, io.EOF)
		require.Eventually(t, func() bool { return b.ConnRegistry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("close errors are logged not returned", func(t *testing.T) {
		port, err := randomAvailablePort()
		require.NoError(t, err)

		b := newBootstrap(t, newMockConfig(t, port, t.TempDir(), false, "0"))
		mr := &MockRegistry{}
		mr.On("CloseAll").Return(fmt.Errorf("close failed"))
		b.ConnRegistry = mr
		done := runInBackground(b)

		time.Sleep(100 * time.Millisecond)
		b.SignalChan <- os.Interrupt
		assert.NoError(t, <-done)
		mr.AssertCalled(t, "CloseAll")
	})

	t.Run("successful run with metrics enabled", func(t *testing.T) {
		port, err := randomAvailablePort()
		require.NoError(t, err)
		metricsPort, err := randomAvailablePort()
		require.NoError(t, err)

		b := newBootstrap(t, newMockConfig(t, port, t.TempDir(), true, metricsPort))
		done := runInBackground(b)

		conn := dialWhenReady(t, "localhost:"+port)
		_, err = conn.Write([]byte("GARBAGE\r\n\r\n"))
		require.NoError(t, err)
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, err = conn.Read(make([]byte, 64))
		require.NoError(t, err)
		conn.Close()

		var body string
		require.Eventually(t, func() bool {
			resp, err := http.Get(fmt.Sprintf("http://localhost:%s/metrics", metricsPort))
			if err != nil {
				return false
			}
			defer resp.Body.Close()
			raw, _ := io.ReadAll(resp.Body)
			body = string(raw)
			return resp.StatusCode == 200 && strings.Contains(body, "rawhttpd_requests_total")
		}, 2*time.Second, 50*time.Millisecond)
		assert.Contains(t, body, "rawhttpd_connections_total")
		assert.Contains(t, body, `rawhttpd_requests_total{code="400",method="unknown"} 1`)
		assert.Contains(t, body, `rawhttpd_errors_total{kind="malformed-request"} 1`)
		assert.Contains(t, body, "go_goroutines")

		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/debug/pprof/", metricsPort))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.NoError(t, resp.Body.Close())

		b.SignalChan <- os.Interrupt
		assert.NoError(t, <-done)
	})
}

func TestNewMetricsServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	m.ConnectionOpened()

	srv := newMetricsServer("9100", reg)
	assert.Equal(t, "localhost:9100", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
