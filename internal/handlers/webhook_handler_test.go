package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkind-fall/marketing-sms-backup/internal/config"
)

func webhookRouter(env *testEnv, cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.POST("/api/webhook", NewWebhookHandler(env.ingest, cfg).ReceiveMessage)
	return router
}

func postWebhook(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookReceiveMessage(t *testing.T) {
	env := setupTestEnv(t)
	router := webhookRouter(env, config.DefaultConfig())

	w := postWebhook(router, `{"from":"0450123456","content":"Your code is 1234","timestamp":1690000000000,"sim_slot":"0"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, true, resp["inserted"])
	assert.Equal(t, "+61450123456", resp["phone"])

	id, _ := resp["id"].(string)
	require.NotEmpty(t, id)

	msg, err := env.messages.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, msg)
	assert.Equal(t, "+61450123456", msg.Phone)
	require.NotNil(t, msg.Body)
	assert.Equal(t, "Your code is 1234", *msg.Body)
	require.NotNil(t, msg.SimSlot)
	assert.Equal(t, "0", *msg.SimSlot)

	// Phone aggregate is updated on insert.
	agg, err := env.phones.Get("+61450123456")
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.MessageCount)
}

func TestWebhookDuplicateIsSkipped(t *testing.T) {
	env := setupTestEnv(t)
	router := webhookRouter(env, config.DefaultConfig())

	payload := `{"from":"0450123456","content":"hello","timestamp":1690000000000}`

	first := postWebhook(router, payload)
	require.Equal(t, http.StatusOK, first.Code)

	second := postWebhook(router, payload)
	require.Equal(t, http.StatusOK, second.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["inserted"])
}

func TestWebhookRejectsMissingFields(t *testing.T) {
	env := setupTestEnv(t)
	router := webhookRouter(env, config.DefaultConfig())

	testCases := []struct {
		name string
		body string
	}{
		{name: "missing from", body: `{"content":"hello"}`},
		{name: "missing content", body: `{"from":"0450123456"}`},
		{name: "not json", body: `from=0450123456`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := postWebhook(router, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestWebhookTOTPVerification(t *testing.T) {
	const secret = "JBSWY3DPEHPK3PXP"

	env := setupTestEnv(t)
	cfg := config.DefaultConfig()
	cfg.Auth.WebhookTOTPSecret = secret
	router := webhookRouter(env, cfg)

	t.Run("missing code", func(t *testing.T) {
		w := postWebhook(router, `{"from":"0450123456","content":"hello"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid verification code")
	})

	t.Run("wrong code", func(t *testing.T) {
		w := postWebhook(router, `{"from":"0450123456","content":"hello","code":"000000"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid code", func(t *testing.T) {
		code, err := totp.GenerateCode(secret, time.Now())
		require.NoError(t, err)

		w := postWebhook(router, `{"from":"0450123456","content":"hello","code":"`+code+`"}`)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})
}
