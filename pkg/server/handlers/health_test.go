package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/engramkit/engram"
	"github.com/engramkit/engram/pkg/store"
	"github.com/engramkit/engram/pkg/types"
)

func healthRouter(client engram.GraphClient) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHealthHandler(client)
	router := gin.New()
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadinessCheck)
	router.GET("/live", handler.LivenessCheck)
	router.GET("/health/detailed", handler.DetailedHealthCheck)
	return router
}

func newHealthClient(t *testing.T) *engram.Client {
	t.Helper()
	st, err := store.NewJSONLStore(t.TempDir()+"/memory.json", nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	client, err := engram.New(context.Background(), st, nil)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestHealthCheck(t *testing.T) {
	router := healthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", response["status"])
	}
	if response["service"] != "engram" {
		t.Errorf("expected service engram, got %v", response["service"])
	}
	if _, ok := response["timestamp"]; !ok {
		t.Error("expected timestamp in response")
	}
	if _, ok := response["version"]; !ok {
		t.Error("expected version in response")
	}
}

func TestLivenessCheck(t *testing.T) {
	router := healthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["status"] != "alive" {
		t.Errorf("expected status alive, got %v", response["status"])
	}
}

func TestReadinessCheck(t *testing.T) {
	client := newHealthClient(t)
	defer client.Close(context.Background())

	_, err := client.CreateEntities(context.Background(), []types.Entity{
		{Name: "alice", EntityType: "person"},
	})
	if err != nil {
		t.Fatalf("failed to seed graph: %v", err)
	}

	router := healthRouter(client)
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["status"] != "ready" {
		t.Errorf("expected status ready, got %v", response["status"])
	}

	checks, ok := response["checks"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected checks object, got %T", response["checks"])
	}
	graph, ok := checks["graph"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected graph check, got %T", checks["graph"])
	}
	if graph["status"] != "healthy" {
		t.Errorf("expected healthy graph check, got %v", graph["status"])
	}
	if graph["entities"] != float64(1) {
		t.Errorf("expected 1 entity in graph check, got %v", graph["entities"])
	}
}

func TestReadinessCheckWithoutClient(t *testing.T) {
	router := healthRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestDetailedHealthCheck(t *testing.T) {
	client := newHealthClient(t)
	defer client.Close(context.Background())

	router := healthRouter(client)
	req := httptest.NewRequest(http.MethodGet, "/health/detailed", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if _, ok := response["build_info"]; !ok {
		t.Error("expected build_info in response")
	}
	checks, ok := response["checks"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected checks object, got %T", response["checks"])
	}
	if _, ok := checks["system"]; !ok {
		t.Error("expected system check in response")
	}
}
