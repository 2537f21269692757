package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppMetrics_Rebuild(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	m.ObserveRebuild(2*time.Millisecond, map[string]int{"base": 3, "selection": 1})
	m.ObserveRebuild(time.Millisecond, map[string]int{"base": 3})

	out := scrape(t, c)
	assert.Equal(t, 2.0, sample(t, out, "test_unit_scene_rebuilds_total"))
	assert.Equal(t, 2.0, sample(t, out, "test_unit_scene_rebuild_duration_seconds_count"))
	assert.Equal(t, 2.0, sample(t, out, `test_unit_scene_draw_records_count{layer="base"}`))
	assert.Equal(t, 1.0, sample(t, out, `test_unit_scene_draw_records_sum{layer="selection"}`))
}

func TestAppMetrics_FailuresAndEdges(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	m.BackendFailures("add_style", 2)
	m.BackendFailures("add_style", 0)
	m.InteractionEdges("salt_bridge", 1)
	m.InteractionEdges("hbond", 0)
	m.SetStructures(3)

	out := scrape(t, c)
	assert.Equal(t, 2.0, sample(t, out, `test_unit_backend_failures_total{op="add_style"}`))
	assert.Equal(t, 1.0, sample(t, out, `test_unit_interaction_edges_total{kind="salt_bridge"}`))
	assert.NotContains(t, out, `kind="hbond"`)
	assert.Equal(t, 3.0, sample(t, out, "test_unit_structures_loaded"))
}

func TestAppMetrics_Loader(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	m.CacheAccess("file", true)
	m.CacheAccess("file", false)
	m.CacheAccess("file", false)
	m.ObserveLoad("minio", 10*time.Millisecond, nil)
	m.ObserveLoad("minio", time.Millisecond, errors.New("boom"))

	out := scrape(t, c)
	assert.Equal(t, 1.0, sample(t, out, `test_unit_structure_cache_hits_total{source="file"}`))
	assert.Equal(t, 2.0, sample(t, out, `test_unit_structure_cache_misses_total{source="file"}`))
	assert.Equal(t, 1.0, sample(t, out, `test_unit_structure_loads_total{source="minio",status="ok"}`))
	assert.Equal(t, 1.0, sample(t, out, `test_unit_structure_loads_total{source="minio",status="error"}`))
}

func TestRecordHTTPRequest(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	RecordHTTPRequest(m, "POST", "/api/read_pdb", 200, 20*time.Millisecond, 512)

	out := scrape(t, c)
	assert.Equal(t, 1.0, sample(t, out, `test_unit_http_requests_total{method="POST",route="/api/read_pdb",status_code="200"}`))
	assert.Equal(t, 512.0, sample(t, out, `test_unit_http_response_size_bytes_sum{method="POST",route="/api/read_pdb"}`))
}

func TestRecordGRPCRequestAndError(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	RecordGRPCRequest(m, "/grpc.health.v1.Health/Check", "OK", time.Millisecond)
	RecordError(m, "http", "STR_002")

	out := scrape(t, c)
	assert.Equal(t, 1.0, sample(t, out, `test_unit_grpc_requests_total{code="OK",method="/grpc.health.v1.Health/Check"}`))
	assert.Equal(t, 1.0, sample(t, out, `test_unit_errors_total{code="STR_002",component="http"}`))
}
