package apiv1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/parley-hq/parley/pkg/gateway/services"
	"github.com/parley-hq/parley/pkg/session"
	"github.com/parley-hq/parley/pkg/types"
)

// SessionsGroup is the UI boundary: session lifecycle plus the chat turn
// endpoint that drives the pipeline.
type SessionsGroup struct {
	routerGroup *echo.Group
	sessions    *session.Manager
	chat        *services.ChatService
}

type SessionResponse struct {
	ID    string                   `json:"id"`
	Turns []types.ConversationTurn `json:"turns"`
}

type PostMessageRequest struct {
	Text string `json:"text"`
}

func NewSessionsGroup(routerGroup *echo.Group, sessions *session.Manager, chat *services.ChatService) *SessionsGroup {
	g := &SessionsGroup{
		routerGroup: routerGroup,
		sessions:    sessions,
		chat:        chat,
	}
	g.registerRoutes()
	return g
}

func (g *SessionsGroup) registerRoutes() {
	g.routerGroup.POST("", g.CreateSession)
	g.routerGroup.GET("/:id", g.GetSession)
	g.routerGroup.DELETE("/:id", g.DeleteSession)
	g.routerGroup.POST("/:id/reset", g.ResetSession)
	g.routerGroup.POST("/:id/messages", g.PostMessage)
}

// CreateSession starts a new conversation
func (g *SessionsGroup) CreateSession(c echo.Context) error {
	sess := g.sessions.Create()
	log.Info().Str("session_id", sess.ID).Msg("session created")

	return c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    SessionResponse{ID: sess.ID, Turns: sess.Turns()},
	})
}

// GetSession returns a session's turn log
func (g *SessionsGroup) GetSession(c echo.Context) error {
	sess := g.sessions.Get(c.Param("id"))
	if sess == nil {
		return ErrorResponse(c, http.StatusNotFound, "session not found")
	}

	return SuccessResponse(c, SessionResponse{ID: sess.ID, Turns: sess.Turns()})
}

// DeleteSession tears down a session
func (g *SessionsGroup) DeleteSession(c echo.Context) error {
	if g.sessions.Get(c.Param("id")) == nil {
		return ErrorResponse(c, http.StatusNotFound, "session not found")
	}
	g.sessions.Remove(c.Param("id"))

	return SuccessResponse(c, nil)
}

// ResetSession clears a session's conversation
func (g *SessionsGroup) ResetSession(c echo.Context) error {
	sess := g.sessions.Get(c.Param("id"))
	if sess == nil {
		return ErrorResponse(c, http.StatusNotFound, "session not found")
	}
	sess.Reset()

	return SuccessResponse(c, SessionResponse{ID: sess.ID, Turns: sess.Turns()})
}

// PostMessage runs one user submission through the pipeline
func (g *SessionsGroup) PostMessage(c echo.Context) error {
	sess := g.sessions.Get(c.Param("id"))
	if sess == nil {
		return ErrorResponse(c, http.StatusNotFound, "session not found")
	}

	var req PostMessageRequest
	if err := c.Bind(&req); err != nil {
		return ErrorResponse(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return ErrorResponse(c, http.StatusBadRequest, "text is required")
	}

	result, err := g.chat.HandleTurn(c.Request().Context(), sess, req.Text)
	if err != nil {
		return g.turnErrorResponse(c, err)
	}

	return SuccessResponse(c, result)
}

// turnErrorResponse maps pipeline errors onto HTTP statuses. Every kind is
// recoverable: the session survives and the user can try again.
func (g *SessionsGroup) turnErrorResponse(c echo.Context, err error) error {
	kind := types.ErrorKind(err)

	switch kind {
	case types.ErrorKindClassificationAmbiguous:
		return TaxonomyErrorResponse(c, http.StatusUnprocessableEntity, kind,
			"I couldn't tell whether you're asking about your email or your database. Could you rephrase?")
	case types.ErrorKindValidationRejected:
		return TaxonomyErrorResponse(c, http.StatusUnprocessableEntity, kind, err.Error())
	case types.ErrorKindSynthesisFailed, types.ErrorKindSynthesisMalformed, types.ErrorKindDispatchFailed:
		log.Error().Err(err).Str("kind", kind).Msg("turn failed")
		return TaxonomyErrorResponse(c, http.StatusBadGateway, kind, err.Error())
	}

	log.Error().Err(err).Msg("turn failed with untyped error")
	return ErrorResponse(c, http.StatusInternalServerError, err.Error())
}
