package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupSuggestTest creates a Gin engine with a mock OpenAI server and returns
// the router and a function to set the mock response. No DB needed.
func setupSuggestTest(apiKey string) (*gin.Engine, *httptest.Server, func(int, any)) {
	var mockStatus int
	var mockBody any

	mockOpenAI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(mockStatus)
		json.NewEncoder(w).Encode(mockBody)
	}))

	gin.SetMode(gin.TestMode)
	h := Handler{openAIBaseURL: mockOpenAI.URL, openAIKey: apiKey, log: zap.NewNop().Sugar()}
	router := gin.New()
	// Skip auth middleware for tests — set a dummy user_id
	router.POST("/api/foods/suggest", func(c *gin.Context) {
		c.Set("user_id", 1)
		c.Next()
	}, h.suggestFood)

	setMock := func(status int, body any) {
		mockStatus = status
		mockBody = body
	}

	return router, mockOpenAI, setMock
}

// doSuggestRequest sends a POST to the suggest endpoint with the given body.
func doSuggestRequest(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/foods/suggest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// openAIChatResponse wraps a content string in the OpenAI chat completions
// response shape (choices[0].message.content).
func openAIChatResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestSuggest_FoodSuccess(t *testing.T) {
	router, mockServer, setMock := setupSuggestTest("test-key")
	defer mockServer.Close()

	suggestion := `{"name":"Scrambled Eggs","serving":"2 eggs","calories":180,"protein":14,"carbs":2,"fat":12,"confidence":4}`
	setMock(http.StatusOK, openAIChatResponse(suggestion))

	w := doSuggestRequest(router, `{"description":"2 eggs scrambled"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp foodSuggestion
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Name != "Scrambled Eggs" {
		t.Errorf("expected name 'Scrambled Eggs', got '%s'", resp.Name)
	}
	if resp.Calories != 180 {
		t.Errorf("expected calories 180, got %v", resp.Calories)
	}
	if resp.Serving != "2 eggs" {
		t.Errorf("expected serving '2 eggs', got '%s'", resp.Serving)
	}
}

func TestSuggest_DefaultsServing(t *testing.T) {
	router, mockServer, setMock := setupSuggestTest("test-key")
	defer mockServer.Close()

	setMock(http.StatusOK, openAIChatResponse(`{"name":"Banana","calories":105,"protein":1.3,"carbs":27,"fat":-1}`))

	w := doSuggestRequest(router, `{"description":"banana"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp foodSuggestion
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Serving != "1 serving" {
		t.Errorf("expected default serving, got '%s'", resp.Serving)
	}
	if resp.Fat != 0 {
		t.Errorf("expected negative fat clamped to 0, got %v", resp.Fat)
	}
}

func TestSuggest_Unrecognized(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"model says unrecognized", `{"error":"unrecognized"}`},
		{"missing name", `{"calories":100}`},
		{"zero calories", `{"name":"Water","calories":0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, mockServer, setMock := setupSuggestTest("test-key")
			defer mockServer.Close()
			setMock(http.StatusOK, openAIChatResponse(tc.content))

			w := doSuggestRequest(router, `{"description":"asdfghjkl"}`)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
			}
			var resp map[string]any
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["error"] != "unrecognized" {
				t.Errorf("expected error 'unrecognized', got '%v'", resp["error"])
			}
		})
	}
}

func TestSuggest_OpenAIError500(t *testing.T) {
	router, mockServer, setMock := setupSuggestTest("test-key")
	defer mockServer.Close()

	setMock(http.StatusInternalServerError, map[string]string{"error": "server error"})

	w := doSuggestRequest(router, `{"description":"banana"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "openai request failed" {
		t.Errorf("expected error 'openai request failed', got '%s'", resp["error"])
	}
}

func TestSuggest_MissingAPIKey(t *testing.T) {
	router, mockServer, _ := setupSuggestTest("")
	defer mockServer.Close()

	w := doSuggestRequest(router, `{"description":"banana"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSuggest_EmptyDescription(t *testing.T) {
	router, mockServer, _ := setupSuggestTest("test-key")
	defer mockServer.Close()

	for _, body := range []string{`{"description":""}`, `{"description":"   "}`, `not json`} {
		w := doSuggestRequest(router, body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d: %s", body, w.Code, w.Body.String())
		}
	}
}

func TestSuggest_MalformedJSON(t *testing.T) {
	router, mockServer, setMock := setupSuggestTest("test-key")
	defer mockServer.Close()

	// OpenAI returns something that isn't valid JSON
	setMock(http.StatusOK, openAIChatResponse(`not valid json at all`))

	w := doSuggestRequest(router, `{"description":"banana"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d: %s", w.Code, w.Body.String())
	}
}
