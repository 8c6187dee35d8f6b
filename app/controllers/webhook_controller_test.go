package controllers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/openbankingng/monobridge/internal/pkg/accounts"
	"github.com/openbankingng/monobridge/internal/pkg/database"
	"github.com/openbankingng/monobridge/internal/pkg/webhook"
)

const testSecret = "whsec_test"

type webhookFixture struct {
	app    *fiber.App
	db     *gorm.DB
	events *webhook.Service
	mirror *accounts.Service
}

func newWebhookFixture(t *testing.T, secret string) *webhookFixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "webhooks.db")
	db, err := gorm.Open(sqlite.Open("file:"+path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	events := webhook.NewServiceFromDB(db)
	mirror := accounts.NewServiceFromDB(db)
	wc := NewWebhookController(events, mirror, secret, nil)
	hc := NewHealthController(db)

	app := fiber.New()
	app.Post("/mono/webhook", wc.HandleMonoWebhook)
	app.Get("/health", hc.HandleHealth)

	return &webhookFixture{app: app, db: db, events: events, mirror: mirror}
}

func (f *webhookFixture) post(t *testing.T, body []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mono/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("mono-webhook-signature", signature)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestWebhook_ValidDeliveryStoredAndAcked(t *testing.T) {
	f := newWebhookFixture(t, testSecret)
	body := []byte(`{"event":"account.connected","data":{"id":"acc_1","customer":"cus_1"}}`)

	resp := f.post(t, body, webhook.SignPayload(body, testSecret))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx := context.Background()
	event, err := f.events.GetEvent(ctx, "acc_1")
	require.NoError(t, err)
	assert.Equal(t, "account.connected", event.EventType)
	assert.Equal(t, string(body), event.PayloadJSON)
	assert.True(t, event.SignatureValid)

	// Side effect: account mirror row created.
	account, err := f.mirror.Get(ctx, "acc_1")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", account.CustomerID)
}

func TestWebhook_RedeliveryAckedOnce(t *testing.T) {
	f := newWebhookFixture(t, testSecret)
	body := []byte(`{"event":"account.connected","data":{"id":"acc_1","customer":"cus_1"}}`)
	sig := webhook.SignPayload(body, testSecret)

	first := f.post(t, body, sig)
	second := f.post(t, body, sig)
	assert.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, http.StatusOK, second.StatusCode)

	events, err := f.events.ListEvents(context.Background(), webhook.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestWebhook_TamperedBodyRejectedWithoutTrace(t *testing.T) {
	f := newWebhookFixture(t, testSecret)
	body := []byte(`{"event":"account.connected","data":{"id":"acc_1"}}`)
	sig := webhook.SignPayload(body, testSecret)

	tampered := append([]byte(nil), body...)
	tampered[len(tampered)-3] ^= 0x01

	resp := f.post(t, tampered, sig)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	events, err := f.events.ListEvents(context.Background(), webhook.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWebhook_MissingSignatureRejected(t *testing.T) {
	f := newWebhookFixture(t, testSecret)
	body := []byte(`{"event":"account.connected","data":{"id":"acc_1"}}`)

	resp := f.post(t, body, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebhook_FailsClosedWithoutSecret(t *testing.T) {
	f := newWebhookFixture(t, "")
	body := []byte(`{"event":"account.connected","data":{"id":"acc_1"}}`)

	// Even a signature computed over the empty secret must be refused.
	resp := f.post(t, body, webhook.SignPayload(body, ""))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	events, err := f.events.ListEvents(context.Background(), webhook.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWebhook_MalformedBodyAfterValidSignature(t *testing.T) {
	f := newWebhookFixture(t, testSecret)
	body := []byte(`not-json`)

	resp := f.post(t, body, webhook.SignPayload(body, testSecret))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	events, err := f.events.ListEvents(context.Background(), webhook.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWebhook_StorageUnavailableIsRetryable(t *testing.T) {
	f := newWebhookFixture(t, testSecret)

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	body := []byte(`{"event":"account.connected","data":{"id":"acc_1"}}`)
	resp := f.post(t, body, webhook.SignPayload(body, testSecret))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebhook_UnknownEventTypeStored(t *testing.T) {
	f := newWebhookFixture(t, testSecret)
	body := []byte(`{"event":"statement.ready","data":{"path":"s3://x"}}`)

	resp := f.post(t, body, webhook.SignPayload(body, testSecret))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	events, err := f.events.ListEvents(context.Background(), webhook.EventFilter{EventType: "statement.ready"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(body), events[0].PayloadJSON)
}

func TestWebhook_UnlinkEventRemovesMirror(t *testing.T) {
	f := newWebhookFixture(t, testSecret)
	ctx := context.Background()

	connected := []byte(`{"event":"account.connected","data":{"id":"acc_9","customer":"cus_9"}}`)
	resp := f.post(t, connected, webhook.SignPayload(connected, testSecret))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	unlinked := []byte(`{"event":"account.unlinked","data":{"account":{"id":"acc_9"}}}`)
	resp = f.post(t, unlinked, webhook.SignPayload(unlinked, testSecret))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := f.mirror.Get(ctx, "acc_9")
	assert.ErrorIs(t, err, accounts.ErrAccountNotFound)
}

func TestHealthEndpoint(t *testing.T) {
	f := newWebhookFixture(t, testSecret)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
