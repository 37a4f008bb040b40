package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type windowRequest struct {
	Values []float64 `json:"values" validate:"required,len=3,dive,finite,gte=0"`
	Label  string    `json:"label" default:"none"`
}

func bindContext(body string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(req, httptest.NewRecorder())
}

func TestReadAndValidateRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  string
		wantField string
	}{
		{name: "valid", body: `{"values":[1,2,3]}`},
		{name: "missing", body: `{}`, wantCode: "ERR_REQUIRED", wantField: "values"},
		{name: "short", body: `{"values":[1,2]}`, wantCode: "ERR_LEN", wantField: "values"},
		{name: "negative", body: `{"values":[1,-2,3]}`, wantCode: "ERR_GTE", wantField: "values[1]"},
		{name: "malformed", body: `{"values":`, wantCode: "ERR_INVALID_BODY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req windowRequest
			errs := ReadAndValidateRequest(bindContext(tt.body), &req)

			if tt.wantCode == "" {
				if errs != nil {
					t.Fatalf("unexpected errors: %+v", errs)
				}
				if req.Label != "none" {
					t.Errorf("default not applied: %q", req.Label)
				}
				return
			}
			if len(errs) == 0 {
				t.Fatal("expected validation errors")
			}
			if errs[0].Code != tt.wantCode {
				t.Errorf("code = %s, want %s", errs[0].Code, tt.wantCode)
			}
			if errs[0].Field != tt.wantField {
				t.Errorf("field = %s, want %s", errs[0].Field, tt.wantField)
			}
		})
	}
}

func TestLenMessageForSlices(t *testing.T) {
	var req windowRequest
	errs := ReadAndValidateRequest(bindContext(`{"values":[1]}`), &req)
	if len(errs) != 1 {
		t.Fatalf("errors = %d, want 1", len(errs))
	}
	if want := "values must contain exactly 3 items"; errs[0].Message != want {
		t.Errorf("message = %q, want %q", errs[0].Message, want)
	}
	if errs[0].Params["len"] != "3" {
		t.Errorf("params = %v", errs[0].Params)
	}
}

func TestAppErrorResponseHidesCause(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	err := InternalError("internal error while processing the model").WithError(errSentinel("matrix exploded"))
	if rerr := AppErrorResponse(c, err); rerr != nil {
		t.Fatal(rerr)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "matrix exploded") {
		t.Errorf("cause leaked: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"detail":"internal error while processing the model"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
