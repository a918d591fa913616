package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/entitycorrect/pkg/correct"
	"github.com/mark3labs/mcp-go/server"
)

func setupRegistry(t *testing.T) *correct.Registry {
	t.Helper()
	dir := t.TempDir()
	write := func(id, manifest, tsv string) {
		d := filepath.Join(dir, id)
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
		os.WriteFile(filepath.Join(d, "manifest.yaml"), []byte(manifest), 0o644)
		os.WriteFile(filepath.Join(d, "synonyms.tsv"), []byte(tsv), 0o644)
	}
	write("banks-zh", "id: banks-zh\nlanguage: zh\nentity_type: bank\nphonetic:\n  enabled: true\n",
		"招商银行\t招行\n农业银行\t农行\n")
	write("brands-en", "id: brands-en\nlanguage: en\nentity_type: brand\nformat:\n  normalize: collapse_whitespace\n",
		"Coca-Cola\tcoke\n")

	reg := correct.NewRegistry(dir)
	if err := reg.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return reg
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(setupRegistry(t), nil, nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCorrectHTTP(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/correct", map[string]any{"text": "去农行还是找行"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var result correct.CorrectResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Corrected != "去农业银行还是招商银行" {
		t.Errorf("Corrected = %q", result.Corrected)
	}
	if strings.Join(result.Canonicals, ",") != "农业银行,招商银行" {
		t.Errorf("Canonicals = %v", result.Canonicals)
	}
}

func TestCorrectHTTP_Query(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/correct?text=coke+and+农行&dicts=brands-en")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var result correct.CorrectResult
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Corrected != "Coca-Cola and 农行" {
		t.Errorf("Corrected = %q", result.Corrected)
	}
}

func TestCorrectHTTP_EmptyText(t *testing.T) {
	srv := newTestServer(t)

	requests := map[string]func() (*http.Response, error){
		"post": func() (*http.Response, error) {
			return http.Post(srv.URL+"/v1/correct", "application/json", strings.NewReader(`{"text":""}`))
		},
		"get empty": func() (*http.Response, error) { return http.Get(srv.URL + "/v1/correct?text=") },
		"get missing": func() (*http.Response, error) { return http.Get(srv.URL + "/v1/correct") },
	}
	for name, do := range requests {
		t.Run(name, func(t *testing.T) {
			resp, err := do()
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			var result correct.CorrectResult
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				t.Fatal(err)
			}
			if result.Corrected != "" || len(result.Pairs) != 0 {
				t.Errorf("result = %+v, want empty", result)
			}
		})
	}
}

func TestCorrectHTTP_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"invalid json", http.MethodPost, "/v1/correct", "{", http.StatusBadRequest},
		{"empty batch", http.MethodPost, "/v1/correct/batch", `{"texts":[]}`, http.StatusBadRequest},
		{"get batch", http.MethodGet, "/v1/correct/batch", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestCorrectBatchHTTP(t *testing.T) {
	srv := newTestServer(t)

	texts := []string{"招行", "coke", "无关", "农行coke"}
	resp := postJSON(t, srv.URL+"/v1/correct/batch", map[string]any{"texts": texts})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	want := []string{"招商银行", "Coca-Cola", "无关", "农业银行Coca-Cola"}
	if len(out.Results) != len(want) {
		t.Fatalf("results = %d, want %d", len(out.Results), len(want))
	}
	for i, w := range want {
		if out.Results[i].Corrected != w {
			t.Errorf("results[%d] = %q, want %q", i, out.Results[i].Corrected, w)
		}
	}
}

func TestCorrectBatchHTTP_TooMany(t *testing.T) {
	srv := newTestServer(t)

	texts := make([]string, MaxBatch+1)
	for i := range texts {
		texts[i] = fmt.Sprintf("t%d", i)
	}
	resp := postJSON(t, srv.URL+"/v1/correct/batch", map[string]any{"texts": texts})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListDictsAndHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/dicts")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var dicts dictsResponse
	json.NewDecoder(resp.Body).Decode(&dicts)
	if len(dicts.Dictionaries) != 2 || dicts.Dictionaries[0].ID != "banks-zh" {
		t.Errorf("dicts = %+v", dicts)
	}

	resp2, err := http.Get(srv.URL + "/v1/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	var health healthResponse
	json.NewDecoder(resp2.Body).Decode(&health)
	if health.Status != "ok" || health.Dictionaries != 2 || health.TotalKeys != 6 {
		t.Errorf("health = %+v", health)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/v1/correct", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("status = %d, headers = %v", resp.StatusCode, resp.Header)
	}
}

func callMCP(t *testing.T, srv *server.MCPServer, id int, method string, params any) string {
	t.Helper()
	msg, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	resp := srv.HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestMCPTools(t *testing.T) {
	srv := server.NewMCPServer("entitycorrect", "test", server.WithToolCapabilities(false))
	RegisterMCPTools(srv, setupRegistry(t), nil)

	list := callMCP(t, srv, 1, "tools/list", map[string]any{})
	for _, name := range []string{"correct_text", "correct_batch", "list_dicts"} {
		if !strings.Contains(list, name) {
			t.Errorf("tools/list missing %s: %s", name, list)
		}
	}

	out := callMCP(t, srv, 2, "tools/call", map[string]any{
		"name":      "correct_text",
		"arguments": map[string]any{"text": "找行", "dicts": "banks-zh"},
	})
	if !strings.Contains(out, "招商银行") {
		t.Errorf("correct_text = %s", out)
	}

	out = callMCP(t, srv, 3, "tools/call", map[string]any{
		"name":      "correct_batch",
		"arguments": map[string]any{"texts": []string{"招行", "coke"}},
	})
	if !strings.Contains(out, "Coca-Cola") || !strings.Contains(out, "招商银行") {
		t.Errorf("correct_batch = %s", out)
	}

	out = callMCP(t, srv, 4, "tools/call", map[string]any{
		"name":      "correct_text",
		"arguments": map[string]any{},
	})
	if !strings.Contains(out, `"isError":true`) {
		t.Errorf("missing text should be a tool error: %s", out)
	}
}
