package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/jobs-tracker/constants"
	"github.com/joseph-ayodele/jobs-tracker/internal/async"
	"github.com/joseph-ayodele/jobs-tracker/internal/batch"
	"github.com/joseph-ayodele/jobs-tracker/internal/entity"
)

type runnerFunc func(ctx context.Context, jobURL string) entity.Record

func (f runnerFunc) Run(ctx context.Context, jobURL string) entity.Record { return f(ctx, jobURL) }

// fakeRunner saves every URL except ones containing "fail".
var fakeRunner = runnerFunc(func(_ context.Context, u string) entity.Record {
	rec := entity.NewRecord(u)
	html := "<html>secret</html>"
	rec.Merge(entity.Update{RawHTML: &html, FetchStatus: entity.Ptr(constants.StatusSuccess)})
	if strings.Contains(u, "fail") {
		rec.Merge(entity.Failure("HTTP 500", nil))
		return rec
	}
	id := "9"
	rec.Merge(entity.Update{
		FinalDetails: &entity.TrackerRow{JobTitle: "SRE", Company: "Acme", Location: "Remote", JobURL: u},
		SaveStatus:   entity.Ptr(constants.StatusSuccess),
		TrackerID:    &id,
	})
	return rec
})

func newTestServer(t *testing.T, withQueue bool) *httptest.Server {
	t.Helper()
	deps := Deps{
		Runner:      fakeRunner,
		Coordinator: batch.NewCoordinator(fakeRunner, nil),
	}
	if withQueue {
		q := async.NewProcessorQueue(fakeRunner, nil, async.WithWorkers(1))
		t.Cleanup(func() { q.Shutdown(context.Background()) })
		deps.Queue = q
	}
	srv := httptest.NewServer(New(deps, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, false)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestCreateJob_Sync(t *testing.T) {
	srv := newTestServer(t, false)
	resp := postJSON(t, srv.URL+"/jobs", map[string]any{"url": "https://example.com/job/1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		Success bool           `json:"success"`
		Error   string         `json:"error"`
		Record  map[string]any `json:"record"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.Success)
	assert.Empty(t, got.Error)
	assert.Equal(t, "9", got.Record["tracker_id"])
	assert.NotContains(t, got.Record, "raw_html")
}

func TestCreateJob_Validation(t *testing.T) {
	srv := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/jobs", map[string]any{"url": "ftp://example.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/jobs", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	raw, err := http.Post(srv.URL+"/jobs", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestCreateJob_AsyncDisabled(t *testing.T) {
	srv := newTestServer(t, false)
	resp := postJSON(t, srv.URL+"/jobs", map[string]any{"url": "https://example.com/job/1", "async": true})
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestCreateJob_AsyncThenPoll(t *testing.T) {
	srv := newTestServer(t, true)
	resp := postJSON(t, srv.URL+"/jobs", map[string]any{"url": "https://example.com/job/1", "async": true})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	id := accepted["id"]
	require.NotEmpty(t, id)
	assert.Equal(t, "/jobs/"+id, resp.Header.Get("Location"))

	var st async.JobStatus
	require.Eventually(t, func() bool {
		r, err := http.Get(srv.URL + "/jobs/" + id)
		if err != nil {
			return false
		}
		defer r.Body.Close()
		if r.StatusCode != http.StatusOK {
			return false
		}
		st = async.JobStatus{}
		return json.NewDecoder(r.Body).Decode(&st) == nil && st.State == async.JobDone
	}, 5*time.Second, 10*time.Millisecond)
	require.NotNil(t, st.Record)
	assert.True(t, st.Record.Succeeded())
	assert.Nil(t, st.Record.RawHTML)

	r, err := http.Get(srv.URL + "/jobs/unknown")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
}

func TestBatch_JSON(t *testing.T) {
	srv := newTestServer(t, false)
	resp := postJSON(t, srv.URL+"/batches", map[string]any{
		"urls":            []string{"https://example.com/a", " ", "https://example.com/fail", "https://example.com/c"},
		"max_concurrency": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res batch.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, 2, res.Summary.Successful)
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Equal(t, constants.OutcomeFailed, res.Outcomes[1].Status)
	assert.Equal(t, "HTTP 500", res.Outcomes[1].Error)
}

func TestBatch_CSVReport(t *testing.T) {
	srv := newTestServer(t, false)
	resp := postJSON(t, srv.URL+"/batches?format=csv", map[string]any{
		"urls": []string{"https://example.com/a", "https://example.com/fail"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "job_tracker_results_")

	rows, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Success", "SRE", "Acme", "Remote", "9", "https://example.com/a"}, rows[1])
	assert.Equal(t, "Failed", rows[2][0])
}

func TestBatch_Validation(t *testing.T) {
	srv := newTestServer(t, false)

	resp := postJSON(t, srv.URL+"/batches", map[string]any{"urls": []string{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/batches", map[string]any{"urls": []string{"https://a"}, "max_concurrency": 1000})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/batches?format=pdf", map[string]any{"urls": []string{"https://a"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGRPCHealth(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	gs, _ := NewGRPCServer()
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
