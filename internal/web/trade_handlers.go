package web

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/Divoolej/prtrade/internal/domain"
	"github.com/Divoolej/prtrade/internal/models"
)

const triggerWord = "prtrade"

// handleStatus обрабатывает slash-команду Slack. Токен и trigger word
// проверяются до выполнения; восстановимые ошибки (нет такого PR, пустой
// проект, непонятная команда) уходят обратно Slack-сообщением, а не HTTP-ошибкой.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, INVALIDPAYLOAD, "invalid form payload")
		return
	}

	token := r.PostFormValue("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.slackConf.Token)) != 1 {
		writeJSON(w, http.StatusUnauthorized, models.SlackResponse{Text: "You are not allowed to do that."})
		return
	}

	trigger := r.PostFormValue("trigger_word")
	if trigger != triggerWord {
		writeJSON(w, http.StatusUnprocessableEntity, models.SlackResponse{Text: "Unknown trigger word."})
		return
	}

	ctx := r.Context()
	result, err := s.tradeService.ResolveCommand(ctx, r.PostFormValue("text"))
	if err != nil {
		if payload, ok := s.slackErrorResponse(err); ok {
			writeJSON(w, http.StatusOK, payload)
			return
		}
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	if result.Reference != nil {
		writeJSON(w, http.StatusOK, s.suggestionsResponse(result))
		return
	}
	writeJSON(w, http.StatusOK, s.listingResponse(result))
}

// slackErrorResponse превращает восстановимые доменные ошибки в сообщения
// для пользователя Slack.
func (s *Server) slackErrorResponse(err error) (models.SlackResponse, bool) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return s.slackResponse("", []models.SlackAttachment{{
			Text:     "Usage: `prtrade <project>`, `prtrade <project> <number>` or `prtrade <pull request url>`.",
			Color:    "warning",
			MrkdwnIn: []string{"text"},
		}}), true
	case errors.Is(err, domain.ErrInvalidPRURL):
		return s.slackResponse("", []models.SlackAttachment{{
			Text:     "That does not look like a pull request URL.",
			Color:    "error",
			MrkdwnIn: []string{"text"},
		}}), true
	case errors.Is(err, domain.ErrNotFound):
		return s.slackResponse("", []models.SlackAttachment{{
			Text:     "I could not find that pull request. Is the review label applied?",
			Color:    "warning",
			MrkdwnIn: []string{"text"},
		}}), true
	case errors.Is(err, domain.ErrNoPullRequests):
		return s.slackResponse("", []models.SlackAttachment{{
			Text:     "There are no tradable pull requests in that project.",
			Color:    "danger",
			MrkdwnIn: []string{"text"},
		}}), true
	default:
		return models.SlackResponse{}, false
	}
}
