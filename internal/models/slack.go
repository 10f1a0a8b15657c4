package models

// SlackResponse — тело ответа на slash-команду Slack.
type SlackResponse struct {
	Username     string            `json:"username,omitempty"`
	Text         string            `json:"text,omitempty"`
	IconEmoji    string            `json:"icon_emoji,omitempty"`
	ResponseType string            `json:"response_type,omitempty"`
	Attachments  []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment — одно вложение сообщения Slack.
type SlackAttachment struct {
	Text     string   `json:"text"`
	Color    string   `json:"color"`
	MrkdwnIn []string `json:"mrkdwn_in,omitempty"`
}
