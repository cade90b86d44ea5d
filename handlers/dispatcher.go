package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"tupilaqs/auth"
	"tupilaqs/models"
	"tupilaqs/services"
	ws "tupilaqs/websocket"
)

const genericErrorMessage = "Something went wrong, try again."

// Dispatcher answers socket messages by type.
type Dispatcher struct {
	Quiz   *services.QuizService
	Tokens *auth.Issuer
	Hub    *ws.Hub
}

func (d *Dispatcher) HandleMessage(ctx context.Context, c *ws.Client, env models.Envelope) bool {
	log.Printf("quiz-received-data from %s: %s", c.RemoteAddr(), env)

	req, err := env.Request()
	if err != nil {
		c.Send(models.ErrorEnvelope("Invalid data for " + env.Type))
		return true
	}

	if keepOpen, ok := d.authenticate(ctx, c, req); !ok {
		return keepOpen
	}
	userIdent, userName := c.User()

	switch env.Type {
	case models.MsgTokenPls:
		if userIdent == "" {
			d.fail(c, env.Type, services.ErrLoginRequired)
			return true
		}
		token, err := d.Tokens.Generate(userIdent, userName)
		if err != nil {
			d.fail(c, env.Type, err)
			return true
		}
		d.reply(c, models.MsgAuth, models.AuthData{Token: token, UserName: userName})

	case models.MsgGetQuestion:
		q, err := d.Quiz.ServeQuestion(ctx, userIdent)
		if err != nil {
			d.fail(c, env.Type, err)
			return true
		}
		log.Printf("serving question %s to %q", q.Ident, userName)
		d.replyEncoded(c, models.MsgReturnQuestion, q)
		d.sendUserInfo(ctx, c, userIdent)

	case models.MsgAnsweredQuestion:
		feedback, err := d.Quiz.Answer(ctx, userIdent, req.QuestionUUID, req.UserAnswer)
		if err != nil {
			d.fail(c, env.Type, err)
			return true
		}
		d.reply(c, models.MsgAnsweredQuestionFeedback, feedback)
		d.sendUserInfo(ctx, c, userIdent)

	case models.MsgInsertNewQuestion:
		confirmation, err := d.Quiz.InsertQuestion(ctx, userIdent, req)
		if err != nil {
			d.fail(c, env.Type, err)
			return true
		}
		d.reply(c, models.MsgReturn, confirmation)

	case models.MsgVoteQuestion:
		result, err := d.Quiz.Vote(ctx, userIdent, req.QuestionUUID, req.Vote)
		if err != nil {
			d.fail(c, env.Type, err)
			return true
		}
		log.Printf("vote %s on %s by %q -> %d", req.Vote, result.Ident, userName, result.Votes)
		feedback, err := models.NewEnvelope(models.MsgVoteFeedback, result)
		if err != nil {
			d.fail(c, env.Type, err)
			return true
		}
		c.Send(feedback)
		if err := d.Hub.BroadcastExcept(feedback, c); err != nil {
			log.Printf("broadcast vote on %s: %v", result.Ident, err)
		}

	default:
		log.Printf("unknown event type %q from %s", env.Type, c.RemoteAddr())
		c.Send(models.ErrorEnvelope("Unknown message type " + env.Type))
	}
	return true
}

// authenticate binds the connection to a user when the message carries
// credentials or a token. ok is false when the message must not be processed;
// keepOpen then says whether the connection survives.
func (d *Dispatcher) authenticate(ctx context.Context, c *ws.Client, req models.Request) (keepOpen, ok bool) {
	switch {
	case req.HasCredentials():
		u, err := d.Quiz.GetOrCreateUser(ctx, req.UserName, req.Password)
		if errors.Is(err, services.ErrWrongPassword) {
			log.Printf("wrong password for %q from %s", req.UserName, c.RemoteAddr())
			c.Send(models.ErrorEnvelope(services.WrongPasswordMessage))
			return false, false
		}
		if err != nil {
			d.fail(c, "login", err)
			return true, false
		}
		c.SetUser(u.Ident, u.UserName)

	case req.Token != "":
		claims, err := d.Tokens.Parse(req.Token)
		if err != nil {
			c.Send(models.ErrorEnvelope("Invalid or expired token, log in again."))
			return true, false
		}
		u, err := d.Quiz.GetUserByIdent(ctx, claims.UserIdent)
		if err != nil {
			c.Send(models.ErrorEnvelope("Invalid or expired token, log in again."))
			return true, false
		}
		c.SetUser(u.Ident, u.UserName)
	}
	return true, true
}

func (d *Dispatcher) sendUserInfo(ctx context.Context, c *ws.Client, userIdent string) {
	if userIdent == "" {
		return
	}
	info, err := d.Quiz.UserInfo(ctx, userIdent)
	if err != nil {
		log.Printf("user info for %s: %v", userIdent, err)
		return
	}
	d.replyEncoded(c, models.MsgReturnUserInfo, info)
}

func (d *Dispatcher) reply(c *ws.Client, msgType string, data interface{}) {
	env, err := models.NewEnvelope(msgType, data)
	if err != nil {
		log.Printf("build %s reply: %v", msgType, err)
		c.Send(models.ErrorEnvelope(genericErrorMessage))
		return
	}
	c.Send(env)
}

// replyEncoded sends data as a JSON string holding the encoded value. The
// browser client parses return_question and return_user_info payloads a
// second time.
func (d *Dispatcher) replyEncoded(c *ws.Client, msgType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("encode %s payload: %v", msgType, err)
		c.Send(models.ErrorEnvelope(genericErrorMessage))
		return
	}
	d.reply(c, msgType, string(raw))
}

// fail reports err to the client. Errors the player can act on are shown as
// they are; anything else is logged and replaced by a generic message.
func (d *Dispatcher) fail(c *ws.Client, msgType string, err error) {
	if isUserError(err) {
		c.Send(models.ErrorEnvelope(err.Error()))
		return
	}
	log.Printf("handling %s from %s: %v", msgType, c.RemoteAddr(), err)
	c.Send(models.ErrorEnvelope(genericErrorMessage))
}

func isUserError(err error) bool {
	return errors.Is(err, services.ErrInvalidInput) ||
		errors.Is(err, services.ErrQuestionNotFound) ||
		errors.Is(err, services.ErrLoginRequired)
}
