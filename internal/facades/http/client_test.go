package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sbilibin2017/gophrt/internal/configs/tlsconfig"
	"github.com/sbilibin2017/gophrt/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpClient "github.com/sbilibin2017/gophrt/internal/configs/transport/http"
)

// cannedResponse is one reply of the fake real-time API.
type cannedResponse struct {
	status int
	body   string
}

// fakeRealtimeAPI replays canned responses in order and records request paths and keys.
type fakeRealtimeAPI struct {
	mu        sync.Mutex
	responses []cannedResponse
	paths     []string
	keys      []string
}

func (f *fakeRealtimeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.paths = append(f.paths, r.URL.Path)
	f.keys = append(f.keys, r.Header.Get("fastly-key"))

	resp := cannedResponse{status: http.StatusOK, body: `{"Timestamp": 0, "Data": [], "AggregateDelay": 0}`}
	if len(f.responses) > 0 {
		resp = f.responses[0]
		f.responses = f.responses[1:]
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

func (f *fakeRealtimeAPI) lastPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.paths) == 0 {
		return ""
	}
	return f.paths[len(f.paths)-1]
}

func newFakeRealtimeAPI(t *testing.T, responses ...cannedResponse) (*fakeRealtimeAPI, *httptest.Server) {
	api := &fakeRealtimeAPI{responses: responses}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func TestClient_GetStatsConsecutive(t *testing.T) {
	api, srv := newFakeRealtimeAPI(t,
		cannedResponse{status: http.StatusOK, body: `{"Timestamp": 1000, "Data": [], "AggregateDelay": 2}`},
		cannedResponse{status: http.StatusOK, body: `{"timestamp": 1003, "data": [{"recorded": 1001}, {"recorded": 1002}], "aggregate_delay": 2}`},
	)

	cli, err := New[models.ServiceResponse]("secret", "abc123", srv.URL+"/v1/channel")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), cli.Timestamp())

	ctx := context.Background()

	first, err := cli.GetStatsConsecutive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/v1/channel/abc123/ts/0", api.lastPath())
	assert.Equal(t, uint64(1000), first.Timestamp)
	assert.Equal(t, uint64(2), first.AggregateDelay)
	assert.Equal(t, uint64(1000), cli.Timestamp())

	second, err := cli.GetStatsConsecutive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/v1/channel/abc123/ts/1000", api.lastPath())
	assert.Len(t, second.Data, 2)
	assert.Equal(t, uint64(1003), cli.Timestamp())

	assert.Equal(t, []string{"secret", "secret"}, api.keys)
}

func TestClient_ResetStatsConsecutive(t *testing.T) {
	api, srv := newFakeRealtimeAPI(t,
		cannedResponse{status: http.StatusOK, body: `{"Timestamp": 500}`},
		cannedResponse{status: http.StatusOK, body: `{"Timestamp": 501}`},
	)

	cli, err := New[models.ServiceResponse]("key", "sid", srv.URL)
	require.NoError(t, err)

	_, err = cli.GetStatsConsecutive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(500), cli.Timestamp())

	cli.ResetStatsConsecutive()
	assert.Equal(t, uint64(0), cli.Timestamp())

	_, err = cli.GetStatsConsecutive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/sid/ts/0", api.lastPath())
}

func TestClient_FailedPollKeepsCursor(t *testing.T) {
	api, srv := newFakeRealtimeAPI(t,
		cannedResponse{status: http.StatusOK, body: `{"Timestamp": 700}`},
		cannedResponse{status: http.StatusServiceUnavailable, body: `upstream busy`},
		cannedResponse{status: http.StatusOK, body: `{"Timestamp": "not a number"}`},
		cannedResponse{status: http.StatusOK, body: `{"Timestamp": 705}`},
	)

	cli, err := New[models.ServiceResponse]("key", "sid", srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cli.GetStatsConsecutive(ctx)
	require.NoError(t, err)

	_, err = cli.GetStatsConsecutive(ctx)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusServiceUnavailable, reqErr.StatusCode)
	assert.Equal(t, "upstream busy", string(reqErr.Body))
	assert.Contains(t, reqErr.Error(), "503")
	assert.Equal(t, uint64(700), cli.Timestamp())

	_, err = cli.GetStatsConsecutive(ctx)
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.False(t, errors.As(err, &reqErr))
	assert.Equal(t, uint64(700), cli.Timestamp())
	assert.Equal(t, "/sid/ts/700", api.lastPath())

	_, err = cli.GetStatsConsecutive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/sid/ts/700", api.lastPath())
	assert.Equal(t, uint64(705), cli.Timestamp())
}

func TestClient_GetStatsFromLeavesCursor(t *testing.T) {
	api, srv := newFakeRealtimeAPI(t,
		cannedResponse{status: http.StatusOK, body: `{"Timestamp": 100}`},
		cannedResponse{status: http.StatusOK, body: `{"Timestamp": 9999}`},
		cannedResponse{status: http.StatusOK, body: `{"Timestamp": 101}`},
	)

	cli, err := New[models.OriginResponse]("key", "sid", srv.URL+"/v1/origins/")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = cli.GetStatsConsecutive(ctx)
	require.NoError(t, err)

	resp, err := cli.GetStatsFrom(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "/v1/origins/sid/ts/42", api.lastPath())
	assert.Equal(t, uint64(9999), resp.Timestamp)
	assert.Equal(t, uint64(100), cli.Timestamp())

	_, err = cli.GetStatsConsecutive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/v1/origins/sid/ts/100", api.lastPath())
}

func TestClient_WindowPaths(t *testing.T) {
	tests := []struct {
		name     string
		call     func(ctx context.Context, cli *Client[models.ServiceResponse]) error
		expected string
	}{
		{
			name: "120 seconds",
			call: func(ctx context.Context, cli *Client[models.ServiceResponse]) error {
				_, err := cli.GetStats120s(ctx)
				return err
			},
			expected: "/v1/channel/I/ts/h",
		},
		{
			name: "limited window",
			call: func(ctx context.Context, cli *Client[models.ServiceResponse]) error {
				_, err := cli.GetStatsMax(ctx, 5)
				return err
			},
			expected: "/v1/channel/I/ts/h/limit/5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, srv := newFakeRealtimeAPI(t,
				cannedResponse{status: http.StatusOK, body: `{"Timestamp": 300}`},
				cannedResponse{status: http.StatusOK, body: `{"Timestamp": 301}`},
			)

			cli, err := New[models.ServiceResponse]("key", "I", srv.URL+"/v1/channel")
			require.NoError(t, err)

			_, err = cli.GetStatsConsecutive(context.Background())
			require.NoError(t, err)

			require.NoError(t, tt.call(context.Background(), cli))
			assert.Equal(t, tt.expected, api.lastPath())
			assert.Equal(t, uint64(300), cli.Timestamp())
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	cli, err := New[models.ServiceResponse]("key", "sid", endpoint)
	require.NoError(t, err)

	_, err = cli.GetStatsConsecutive(context.Background())
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.NotNil(t, reqErr.Err)
	assert.Equal(t, 0, reqErr.StatusCode)
	assert.Equal(t, uint64(0), cli.Timestamp())
}

func TestClient_CanceledContext(t *testing.T) {
	_, srv := newFakeRealtimeAPI(t)

	cli, err := New[models.ServiceResponse]("key", "sid", srv.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = cli.GetStats120s(ctx)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_ConfigurationError(t *testing.T) {
	tests := []struct {
		name string
		opts []httpClient.Opt
	}{
		{
			name: "invalid proxy",
			opts: []httpClient.Opt{httpClient.WithProxy("not a url")},
		},
		{
			name: "missing CA bundle",
			opts: []httpClient.Opt{httpClient.WithTLS(tlsconfig.WithCACertPath(filepath.Join(t.TempDir(), "ca.pem")))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, err := New[models.ServiceResponse]("key", "sid", ServiceEndpoint, tt.opts...)
			assert.Nil(t, cli)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.NotNil(t, errors.Unwrap(err))
		})
	}
}

func TestNew_Accessors(t *testing.T) {
	cli, err := New[models.OriginResponse]("key", "sid", OriginEndpoint+"/")
	require.NoError(t, err)
	assert.Equal(t, "sid", cli.ServiceID())
	assert.Equal(t, OriginEndpoint, cli.Endpoint())
}

func TestErrors_Messages(t *testing.T) {
	long := make([]byte, maxErrorBody+10)
	for i := range long {
		long[i] = 'x'
	}

	reqErr := &RequestError{URL: "u", StatusCode: 500, Body: long}
	assert.Contains(t, reqErr.Error(), "...")
	assert.Nil(t, reqErr.Unwrap())

	cause := errors.New("boom")
	assert.ErrorIs(t, &RequestError{URL: "u", Err: cause}, cause)
	assert.ErrorIs(t, &DecodeError{URL: "u", Err: cause}, cause)
	assert.ErrorIs(t, &ConfigurationError{Err: cause}, cause)
	assert.Contains(t, (&DecodeError{URL: "u", Err: cause}).Error(), "decode u")
}
