package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"

	"github.com/orrn/printdesk/internal/api/handlers/mocks"
	"github.com/orrn/printdesk/internal/api/middleware"
	"github.com/orrn/printdesk/internal/core"
	"github.com/orrn/printdesk/internal/db"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asAdmin marks the request as coming from an authenticated admin.
func asAdmin(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextKeyAdminEmail, email)
		c.Next()
	}
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestPrintHandler_AdmitOrder(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := NewPrintHandler(mocks.NewMockOrderAdmitter(ctrl), mocks.NewMockPrinterProber(ctrl))

		r := gin.New()
		r.POST("/printer", h.AdmitOrder)

		if w := perform(r, http.MethodPost, "/printer", `{"orderId":`); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
		if w := perform(r, http.MethodPost, "/printer", `{}`); w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing order id, got %d", w.Code)
		}
	})

	t.Run("admitted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		admission := mocks.NewMockOrderAdmitter(ctrl)
		h := NewPrintHandler(admission, mocks.NewMockPrinterProber(ctrl))

		r := gin.New()
		r.POST("/printer", h.AdmitOrder)

		admission.EXPECT().AdmitOrder(gomock.Any(), "o1", core.Actor{}).
			Return(&db.Order{ID: "o1", PrintStatus: core.StatusPending}, nil)

		w := perform(r, http.MethodPost, "/printer", `{"orderId":"o1"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp AdmitResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		if !resp.Success || resp.OrderID != "o1" || resp.PrintStatus != core.StatusPending {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("admin actor is forwarded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		admission := mocks.NewMockOrderAdmitter(ctrl)
		h := NewPrintHandler(admission, mocks.NewMockPrinterProber(ctrl))

		r := gin.New()
		r.POST("/printer", asAdmin("ops@shop.test"), h.AdmitOrder)

		admission.EXPECT().AdmitOrder(gomock.Any(), "o1", core.Actor{Email: "ops@shop.test", IsAdmin: true}).
			Return(&db.Order{ID: "o1", PrintStatus: core.StatusPending}, nil)

		if w := perform(r, http.MethodPost, "/printer", `{"orderId":"o1"}`); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	errorCases := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"unknown order", core.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
		{"unpaid", core.ErrPaymentIncomplete, http.StatusUnprocessableEntity, "payment_incomplete"},
		{"no file", core.ErrNoFile, http.StatusUnprocessableEntity, "no_file"},
		{"leased", core.ErrLeaseHeld, http.StatusConflict, "lease_held"},
		{"transition", &core.TransitionError{From: "printed", To: "pending", Reason: "admin only"}, http.StatusConflict, "invalid_transition"},
		{"store failure", errors.New("disk full"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			admission := mocks.NewMockOrderAdmitter(ctrl)
			h := NewPrintHandler(admission, mocks.NewMockPrinterProber(ctrl))

			r := gin.New()
			r.POST("/printer", h.AdmitOrder)

			admission.EXPECT().AdmitOrder(gomock.Any(), "o1", gomock.Any()).Return(nil, tc.err)

			w := perform(r, http.MethodPost, "/printer", `{"orderId":"o1"}`)
			if w.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, w.Code)
			}
			if resp := decodeError(t, w); resp.Error != tc.kind {
				t.Errorf("expected error %s, got %+v", tc.kind, resp)
			}
		})
	}
}

func TestPrintHandler_Status(t *testing.T) {
	t.Run("invalid index", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := NewPrintHandler(mocks.NewMockOrderAdmitter(ctrl), mocks.NewMockPrinterProber(ctrl))

		r := gin.New()
		r.GET("/printer/status", h.Status)

		for _, q := range []string{"abc", "0", "-1"} {
			if w := perform(r, http.MethodGet, "/printer/status?printerIndex="+q, ""); w.Code != http.StatusBadRequest {
				t.Errorf("printerIndex=%s: expected 400, got %d", q, w.Code)
			}
		}
	})

	t.Run("health and retry queue", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		printers := mocks.NewMockPrinterProber(ctrl)
		h := NewPrintHandler(mocks.NewMockOrderAdmitter(ctrl), printers)

		r := gin.New()
		r.GET("/printer/status", h.Status)

		printers.EXPECT().CheckHealth(gomock.Any(), 1).Return(core.HealthStatus{PrinterIndex: 1, Healthy: true, Message: "ok"})
		printers.EXPECT().PrinterURLs().Return([]string{"http://p1", "http://p2"})
		printers.EXPECT().RetryQueueStatus().Return(core.RetryQueueStatus{Size: 1, Capacity: 100, Items: []core.RetryEntry{{JobID: "j1"}}})

		w := perform(r, http.MethodGet, "/printer/status", "")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp PrinterStatusResponse
		json.Unmarshal(w.Body.Bytes(), &resp)
		if !resp.Printer.Healthy || resp.PrinterCount != 2 || resp.RetryQueue.Size != 1 {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestPrintHandler_ProcessPending(t *testing.T) {
	report := &core.BatchReport{
		Results: []core.OrderOutcome{
			{OrderID: "a", Status: core.OutcomeSuccess},
			{OrderID: "b", Status: core.OutcomeSkipped, Reason: "requires admin action"},
		},
		Total: 2, Success: 1, Skipped: 1,
	}

	tests := []struct {
		name  string
		path  string
		body  string
		index int
	}{
		{"default printer", "/printer/process-pending", "", 1},
		{"query index", "/printer/process-pending?printerIndex=2", "", 2},
		{"body index", "/printer/process-pending", `{"printerIndex":3}`, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			admission := mocks.NewMockOrderAdmitter(ctrl)
			h := NewPrintHandler(admission, mocks.NewMockPrinterProber(ctrl))

			r := gin.New()
			r.POST("/printer/process-pending", h.ProcessPending)

			admission.EXPECT().ProcessAllPending(gomock.Any(), tt.index).Return(report, nil)

			w := perform(r, http.MethodPost, tt.path, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			var got core.BatchReport
			json.Unmarshal(w.Body.Bytes(), &got)
			if got.Total != 2 || got.Skipped != 1 || len(got.Results) != 2 || got.Results[1].Reason != "requires admin action" {
				t.Errorf("unexpected report %+v", got)
			}
		})
	}

	t.Run("scan failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		admission := mocks.NewMockOrderAdmitter(ctrl)
		h := NewPrintHandler(admission, mocks.NewMockPrinterProber(ctrl))

		r := gin.New()
		r.POST("/printer/process-pending", h.ProcessPending)

		admission.EXPECT().ProcessAllPending(gomock.Any(), 1).Return(nil, errors.New("database is locked"))

		if w := perform(r, http.MethodPost, "/printer/process-pending", ""); w.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", w.Code)
		}
	})
}
