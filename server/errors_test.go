package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errValidation("bad input"), http.StatusBadRequest},
		{errPrecondition("wrong state"), http.StatusConflict},
		{errNotFound("missing"), http.StatusNotFound},
		{errForbidden("not yours"), http.StatusForbidden},
		{errUpstream("wallet down", errors.New("boom")), http.StatusBadGateway},
		{errTimeout("too slow", errors.New("deadline")), http.StatusGatewayTimeout},
		{errors.New("raw"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		recorder := httptest.NewRecorder()
		writeError(recorder, tc.err)
		if recorder.Code != tc.want {
			t.Fatalf("%v: expected %d got %d", tc.err, tc.want, recorder.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		if body["error"] == "" || body["kind"] == "" {
			t.Fatalf("expected error and kind fields, got %v", body)
		}
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	recorder := httptest.NewRecorder()
	writeError(recorder, errors.New("password=hunter2"))
	if recorder.Body.String() == "" {
		t.Fatal("expected a body")
	}
	var body map[string]string
	_ = json.Unmarshal(recorder.Body.Bytes(), &body)
	if body["error"] != "internal error" {
		t.Fatalf("internal details must not leak, got %q", body["error"])
	}
}
