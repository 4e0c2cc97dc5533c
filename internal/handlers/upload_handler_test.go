package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const messagesArchive = `<smses count="2">
  <sms address="0450123456" date="1690000000000" type="1" body="hello" contact_name="Alice" />
  <sms address="0450123456" date="1690000100000" type="2" body="reply" />
</smses>`

const callsArchive = `<calls count="1">
  <call number="0450123456" duration="30" date="1690000000000" type="1" />
</calls>`

func uploadRouter(env *testEnv) *gin.Engine {
	router := gin.New()
	router.POST("/api/upload", NewUploadHandler(env.ingest).Upload)
	return router
}

func TestUploadRawXMLMessages(t *testing.T) {
	env := setupTestEnv(t)
	router := uploadRouter(env)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(messagesArchive))
	req.Header.Set("Content-Type", "text/xml")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "messages", resp["archive"])
	assert.Equal(t, float64(2), resp["total"])
	assert.Equal(t, float64(2), resp["inserted"])
	assert.Equal(t, float64(0), resp["skipped"])
	assert.Equal(t, float64(1), resp["uniquePhones"])
}

func TestUploadMultipartCalls(t *testing.T) {
	env := setupTestEnv(t)
	router := uploadRouter(env)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "calls.xml")
	require.NoError(t, err)
	_, err = part.Write([]byte(callsArchive))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "calls", resp["archive"])
	assert.Equal(t, float64(1), resp["inserted"])
}

func TestUploadIdempotentReingestion(t *testing.T) {
	env := setupTestEnv(t)
	router := uploadRouter(env)

	for i, wantInserted := range []float64{2, 0} {
		req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(messagesArchive))
		req.Header.Set("Content-Type", "text/xml")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, "pass %d: %s", i, w.Body.String())

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, wantInserted, resp["inserted"], "pass %d", i)
	}
}

func TestUploadRejectsUnknownFormat(t *testing.T) {
	env := setupTestEnv(t)
	router := uploadRouter(env)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("<backup><item/></backup>"))
	req.Header.Set("Content-Type", "text/xml")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unrecognized archive format")
}

func TestUploadRejectsMalformedXML(t *testing.T) {
	env := setupTestEnv(t)
	router := uploadRouter(env)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader(`<smses count="1"><sms address="0450123456"`))
	req.Header.Set("Content-Type", "text/xml")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Malformed message archive")
}

func TestUploadRejectsEmptyBody(t *testing.T) {
	env := setupTestEnv(t)
	router := uploadRouter(env)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("   "))
	req.Header.Set("Content-Type", "text/xml")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Empty archive")
}
