package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &StrategyHandler{}
	r.POST("/api/v1/payoff", h.payoffPreview)
	return r
}

func TestPayoffPreview_CoveredCall(t *testing.T) {
	body := `{
		"underlying_price": 18000,
		"range_percent": 20,
		"legs": [
			{"id":"f1","kind":"future","side":"buy","quantity":"50","entry_price":"18000"},
			{"id":"c1","kind":"call","side":"sell","quantity":50,"strike":19000,"entry_premium":200}
		]
	}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payoff", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		Code int `json:"code"`
		Data struct {
			Points []struct {
				Price  int64 `json:"price"`
				Payoff int64 `json:"payoff"`
			} `json:"points"`
			MaxProfit string `json:"max_profit"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != 0 {
		t.Fatalf("code=%d want=0", resp.Code)
	}
	if len(resp.Data.Points) != 101 {
		t.Fatalf("points=%d want=101", len(resp.Data.Points))
	}
	if resp.Data.MaxProfit != "60000" {
		t.Fatalf("max profit=%s want=60000", resp.Data.MaxProfit)
	}
}

func TestPayoffPreview_RejectsBadLegs(t *testing.T) {
	cases := []string{
		// Non-numeric quantity fails decoding before any math runs.
		`{"underlying_price":18000,"legs":[{"id":"f1","kind":"future","side":"buy","quantity":"abc","entry_price":18000}]}`,
		// Unknown kind fails validation.
		`{"underlying_price":18000,"legs":[{"id":"f1","kind":"swap","side":"buy","quantity":1,"entry_price":18000}]}`,
		// Duplicate ids fail validation.
		`{"underlying_price":18000,"legs":[
			{"id":"f1","kind":"future","side":"buy","quantity":1,"entry_price":18000},
			{"id":"f1","kind":"future","side":"sell","quantity":1,"entry_price":18000}
		]}`,
	}
	router := newTestRouter()
	for i, body := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payoff", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("case %d: status=%d want=400 body=%s", i, w.Code, w.Body.String())
		}
	}
}
