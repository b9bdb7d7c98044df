package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

const testToken = "12345"

// sign computes the signature Twilio sends for a form POST
func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}

	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func setupRouter(publicURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := gin.New()
	router.POST("/chat", TwilioSignature(testToken, publicURL, logger), func(c *gin.Context) {
		c.String(http.StatusOK, c.PostForm("Body"))
	})
	return router
}

func newRequest(form url.Values, signature string) *http.Request {
	req, _ := http.NewRequest("POST", "/chat", strings.NewReader(form.Encode()))
	req.Host = "bot.example.com"
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	return req
}

func TestTwilioSignature_Valid(t *testing.T) {
	router := setupRouter("")
	form := url.Values{"Body": {"hello"}, "From": {"whatsapp:+14155550100"}}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(form, sign(testToken, "http://bot.example.com/chat", form)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
}

func TestTwilioSignature_PublicURL(t *testing.T) {
	router := setupRouter("https://public.example.com/")
	form := url.Values{"Body": {"hello"}}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(form, sign(testToken, "https://public.example.com/chat", form)))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTwilioSignature_Missing(t *testing.T) {
	router := setupRouter("")
	form := url.Values{"Body": {"hello"}}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(form, ""))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTwilioSignature_Tampered(t *testing.T) {
	router := setupRouter("")
	signed := url.Values{"Body": {"hello"}}
	sent := url.Values{"Body": {"add evil"}}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(sent, sign(testToken, "http://bot.example.com/chat", signed)))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTwilioSignature_WrongToken(t *testing.T) {
	router := setupRouter("")
	form := url.Values{"Body": {"hello"}}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, newRequest(form, sign("other-token", "http://bot.example.com/chat", form)))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestURL(t *testing.T) {
	req, _ := http.NewRequest("POST", "/chat?x=1", nil)
	req.Host = "bot.example.com"

	assert.Equal(t, "http://bot.example.com/chat?x=1", requestURL(req, ""))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://bot.example.com/chat?x=1", requestURL(req, ""))

	assert.Equal(t, "https://public.example.com/chat?x=1", requestURL(req, "https://public.example.com"))
}
