package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		APIURL:     srv.URL,
		APIKey:     "test-key",
		APISecret:  "test-secret",
		SenderID:   "EASYMO",
		MaxRetries: 3,
	})
	client.sleep = func(time.Duration) {}
	return client, &calls
}

func TestSend_Success(t *testing.T) {
	var gotReq gatewayRequest
	var gotAuth, gotSecret string

	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSecret = r.Header.Get("X-API-Secret")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message_id":"msg-123","cost":15.5}`))
	})

	result := client.Send(context.Background(), Message{
		To:        "+250788123456",
		Body:      "hello",
		Reference: "ref-1",
	})

	assert.True(t, result.Success)
	assert.Equal(t, "msg-123", result.MessageID)
	assert.Equal(t, 15.5, result.Cost)
	assert.Empty(t, result.Error)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-secret", gotSecret)
	assert.Equal(t, "EASYMO", gotReq.Sender)
	assert.Equal(t, "+250788123456", gotReq.Recipient)
	assert.Equal(t, "hello", gotReq.Message)
	assert.Equal(t, "ref-1", gotReq.Reference)
}

func TestSend_AcceptsAlternateIDField(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"alt-42"}`))
	})

	result := client.Send(context.Background(), Message{To: "+250788123456", Body: "hi"})

	assert.True(t, result.Success)
	assert.Equal(t, "alt-42", result.MessageID)
}

func TestSend_GatewayErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	result := client.Send(context.Background(), Message{To: "+250788123456", Body: "hi"})

	assert.False(t, result.Success)
	assert.Equal(t, "502 - upstream down", result.Error)
}

func TestSend_InvalidPhoneSkipsNetwork(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called for an invalid number")
	})

	result := client.Send(context.Background(), Message{To: "not-a-number", Body: "hi"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Invalid phone number format")
	assert.Equal(t, int32(0), calls.Load())
}

func TestSendWithRetry_ExhaustsAttempts(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})

	var waits []time.Duration
	client.sleep = func(d time.Duration) { waits = append(waits, d) }

	result := client.SendWithRetry(context.Background(), Message{To: "+250788123456", Body: "hi"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "failed after 3 attempts")
	assert.Contains(t, result.Error, "500 - boom")
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestSendWithRetry_RecoversOnSecondAttempt(t *testing.T) {
	var attempt atomic.Int32
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempt.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"message_id":"msg-2"}`))
	})

	result := client.SendWithRetry(context.Background(), Message{To: "+250788123456", Body: "hi"})

	assert.True(t, result.Success)
	assert.Equal(t, "msg-2", result.MessageID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendWithRetry_InvalidPhoneNotRetried(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called for an invalid number")
	})

	slept := false
	client.sleep = func(time.Duration) { slept = true }

	result := client.SendWithRetry(context.Background(), Message{To: "12345", Body: "hi"})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Invalid phone number")
	assert.Equal(t, int32(0), calls.Load())
	assert.False(t, slept)
}

func TestBackoff_CapsAtFiveSeconds(t *testing.T) {
	assert.Equal(t, time.Second, backoff(1))
	assert.Equal(t, 2*time.Second, backoff(2))
	assert.Equal(t, 4*time.Second, backoff(3))
	assert.Equal(t, 5*time.Second, backoff(4))
	assert.Equal(t, 5*time.Second, backoff(10))
}
