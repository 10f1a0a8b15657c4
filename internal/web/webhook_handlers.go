package web

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Divoolej/prtrade/internal/models"
)

type cacheUpdateResp struct {
	Text string `json:"text"`
}

// handleCacheUpdate принимает вебхук GitHub и применяет событие к кешу.
// Подпись проверяется до разбора тела; no-op переходы — тоже успех.
func (s *Server) handleCacheUpdate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, INVALIDPAYLOAD, "could not read request body")
		return
	}

	if !s.validWebhookSignature(body, r.Header.Get("X-Hub-Signature")) {
		writeError(w, http.StatusUnauthorized, UNAUTHORIZED, "webhook signature mismatch")
		return
	}

	event, err := parseWebhookEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, INVALIDPAYLOAD, "invalid json payload")
		return
	}

	ctx := r.Context()
	if err := s.syncService.Apply(ctx, event); err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	writeJSON(w, http.StatusOK, cacheUpdateResp{Text: "Cache updated"})
}

// parseWebhookEvent разбирает тело вебхука и быстро отклоняет событие
// без обязательных полей: такой запрос — ошибка интеграции, а не кейс
// для частичного восстановления.
func parseWebhookEvent(body []byte) (models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return models.WebhookEvent{}, err
	}
	if event.Action == "" || event.PullRequest.Number == 0 || event.PullRequest.HTMLURL == "" {
		return models.WebhookEvent{}, fmt.Errorf("webhook payload misses required fields")
	}
	return event, nil
}

// validWebhookSignature сверяет HMAC-SHA1 подпись тела с заголовком
// X-Hub-Signature. Сравнение за постоянное время.
func (s *Server) validWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha1.New, []byte(s.githubConf.WebhookSecret))
	mac.Write(body)
	expected := "sha1=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
