package db

import (
	"encoding/json"
	"testing"
)

func TestHealthResponse_HealthyJSON(t *testing.T) {
	resp := healthResponse{
		Status: "healthy",
		Pool: PoolStats{
			TotalConns:      3,
			IdleConns:       2,
			AcquiredConns:   1,
			MaxConns:        10,
			AcquireCount:    42,
			AcquireDuration: "150ms",
			Healthy:         true,
		},
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if m["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", m["status"])
	}
	if _, ok := m["error"]; ok {
		t.Error("empty error should be omitted")
	}
	pool, ok := m["pool"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing pool object: %v", m)
	}
	if pool["total_conns"].(float64) != 3 {
		t.Errorf("total_conns = %v, want 3", pool["total_conns"])
	}
	if pool["acquire_duration"] != "150ms" {
		t.Errorf("acquire_duration = %v, want 150ms", pool["acquire_duration"])
	}
	if pool["healthy"] != true {
		t.Errorf("healthy = %v, want true", pool["healthy"])
	}
}

func TestHealthResponse_UnhealthyJSON(t *testing.T) {
	resp := healthResponse{
		Status: "unhealthy",
		Error:  "dial tcp: connection refused",
		Pool:   PoolStats{MaxConns: 10},
	}

	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if m["status"] != "unhealthy" {
		t.Errorf("status = %v, want unhealthy", m["status"])
	}
	if m["error"] != "dial tcp: connection refused" {
		t.Errorf("error = %v", m["error"])
	}
	pool := m["pool"].(map[string]interface{})
	if pool["healthy"] != false {
		t.Errorf("healthy = %v, want false", pool["healthy"])
	}
}
