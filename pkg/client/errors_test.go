package client

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestError_Error(t *testing.T) {
	e := &Error{Kind: KindNotFound, StatusCode: 404, Message: "summoner not found"}
	want := "riot not_found (status 404): summoner not found"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	noMsg := &Error{Kind: KindUnauthorized, StatusCode: 401}
	if !strings.Contains(noMsg.Error(), "unauthorized") {
		t.Errorf("Error() = %q, want kind in message", noMsg.Error())
	}
}

func TestError_Retryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindUnsupportedRegion, false},
		{KindBadRequest, false},
		{KindUnauthorized, false},
		{KindForbidden, false},
		{KindNotFound, false},
		{KindRateLimited, true},
		{KindUpstreamServer, true},
		{KindServiceUnavailable, true},
	}
	for _, tt := range tests {
		e := &Error{Kind: tt.kind}
		if e.Retryable() != tt.want {
			t.Errorf("Retryable(%s) = %v, want %v", tt.kind, e.Retryable(), tt.want)
		}
	}
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindUnsupportedRegion, http.StatusBadRequest},
		{KindBadRequest, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindUpstreamServer, http.StatusInternalServerError},
		{KindServiceUnavailable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		e := &Error{Kind: tt.kind}
		if e.HTTPStatus() != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.kind, e.HTTPStatus(), tt.want)
		}
	}
}

func TestUpstreamMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"riot status shape", `{"status": {"message": "Custom text", "status_code": 404}}`, "Custom text"},
		{"raw text fallback", `plain failure`, "plain failure"},
		{"empty message falls back to raw", `{"status": {"status_code": 500}}`, `{"status": {"status_code": 500}}`},
		{"whitespace trimmed", "  oops \n", "oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := upstreamMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("upstreamMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyStatus_ServiceUnavailableCooldown(t *testing.T) {
	e := classifyStatus(http.StatusServiceUnavailable, nil, "https://na1.api.riotgames.com/x")
	if e.Kind != KindServiceUnavailable {
		t.Fatalf("Kind = %s, want service_unavailable", e.Kind)
	}
	if e.RetryAfter != 60*time.Second {
		t.Errorf("RetryAfter = %v, want 60s", e.RetryAfter)
	}
}

func TestClassifyStatus_DdragonHintScopedToHost(t *testing.T) {
	// The hint only applies to Data Dragon URLs.
	riot := classifyStatus(http.StatusForbidden, []byte(`nope`), "https://na1.api.riotgames.com/x")
	if strings.Contains(riot.Message, "version") {
		t.Errorf("hint leaked into non-ddragon 403: %q", riot.Message)
	}

	ddragon := classifyStatus(http.StatusForbidden, []byte(`nope`), "https://ddragon.leagueoflegends.com/cdn/latest/x")
	if !strings.Contains(ddragon.Message, "concrete version") {
		t.Errorf("ddragon 403 missing hint: %q", ddragon.Message)
	}
}

func TestClassify(t *testing.T) {
	// Typed errors pass through untouched.
	typed := &Error{Kind: KindNotFound, StatusCode: 404}
	if got := Classify(typed); got != typed {
		t.Error("Classify() rewrapped an already-typed error")
	}

	// Foreign errors become transient upstream failures and stay unwrappable.
	cause := errors.New("connection refused")
	got := Classify(cause)
	if got.Kind != KindUpstreamServer {
		t.Errorf("Kind = %s, want upstream_server", got.Kind)
	}
	if !errors.Is(got, cause) {
		t.Error("Classify() lost the original error")
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) != nil")
	}
}
