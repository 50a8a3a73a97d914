package webhooks

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/kitarena/kitarena-backend/pkg/enums"
)

func TestMollieWebhookConfirmsPayment(t *testing.T) {
	confirmer := &fakeConfirmer{}
	handler := MollieWebhook(confirmer, nil)

	form := url.Values{"id": {"tr_12345"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mollie", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if confirmer.reference != "tr_12345" {
		t.Fatalf("expected payment id tr_12345, got %s", confirmer.reference)
	}
	if confirmer.provider != enums.PaymentProviderMollie {
		t.Fatalf("unexpected provider %s", confirmer.provider)
	}
}

func TestMollieWebhookRequiresPaymentID(t *testing.T) {
	confirmer := &fakeConfirmer{}
	handler := MollieWebhook(confirmer, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/mollie", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without payment id, got %d", rec.Code)
	}
	if confirmer.calls != 0 {
		t.Fatalf("service must not run without a payment id")
	}
}
