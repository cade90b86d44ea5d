package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Message types sent by the browser client.
const (
	MsgTokenPls          = "token_pls"
	MsgGetQuestion       = "get_question"
	MsgAnsweredQuestion  = "answered_question"
	MsgInsertNewQuestion = "insert_new_question"
	MsgVoteQuestion      = "vote_question"
)

// Message types sent by the server.
const (
	MsgAuth                     = "auth"
	MsgReturn                   = "return"
	MsgReturnQuestion           = "return_question"
	MsgAnsweredQuestionFeedback = "answered_question_feedback"
	MsgVoteFeedback             = "vote_feedback"
	MsgReturnUserInfo           = "return_user_info"
	MsgError                    = "error"
)

const debugDataWidth = 120

var ErrMissingType = errors.New("message has no type")

// Envelope is the {type, data} wrapper used for every socket message.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewEnvelope(msgType string, data interface{}) (Envelope, error) {
	env := Envelope{Type: msgType}
	if data == nil {
		return env, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return env, fmt.Errorf("marshal %s data: %w", msgType, err)
	}
	env.Data = raw
	return env, nil
}

// ErrorEnvelope builds the error reply shown to the user as a banner.
func ErrorEnvelope(message string) Envelope {
	env, _ := NewEnvelope(MsgError, ErrorData{Message: message})
	return env
}

type ErrorData struct {
	Message string `json:"message"`
}

func Encode(env Envelope) ([]byte, error) {
	if env.Type == "" {
		return nil, ErrMissingType
	}
	return json.Marshal(env)
}

func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return env, ErrMissingType
	}
	return env, nil
}

// Request decodes the data payload into the union of inbound fields.
// A missing or null payload yields the zero Request.
func (e Envelope) Request() (Request, error) {
	var req Request
	trimmed := bytes.TrimSpace(e.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return req, nil
	}
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return req, fmt.Errorf("decode %s data: %w", e.Type, err)
	}
	return req, nil
}

// String is the one-line form used in logs. Credentials are masked.
func (e Envelope) String() string {
	data := "null"
	if len(e.Data) > 0 {
		data = debugData(e.Data)
	}
	return fmt.Sprintf("type=%s data=%s", e.Type, truncate(data, debugDataWidth))
}

// truncate cuts s to at most width bytes without splitting a rune.
func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	cut := width
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

var redactedFields = []string{"password", "token"}

func debugData(raw json.RawMessage) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil && fields != nil {
		for _, key := range redactedFields {
			if _, ok := fields[key]; ok {
				fields[key] = json.RawMessage(`"***"`)
			}
		}
		if b, err := json.Marshal(fields); err == nil {
			return string(b)
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Request is every field a client may put in data. Each message type reads
// the subset it needs.
type Request struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
	Token    string `json:"token"`

	QuestionUUID string `json:"question_uuid"`
	UserAnswer   string `json:"user_answer"`
	Vote         string `json:"vote"`

	Question               string `json:"question"`
	CorrectAnswer          string `json:"correct_answer"`
	NewQuestionTitle       string `json:"new_question_title"`
	NewQuestionExplanation string `json:"new_question_explanation"`
	Difficulty             int    `json:"difficulty"`
}

func (r Request) HasCredentials() bool {
	return r.UserName != "" || r.Password != ""
}
