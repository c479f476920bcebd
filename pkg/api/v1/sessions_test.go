package apiv1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-hq/parley/pkg/dispatch"
	"github.com/parley-hq/parley/pkg/gateway/services"
	"github.com/parley-hq/parley/pkg/intent"
	"github.com/parley-hq/parley/pkg/llm"
	"github.com/parley-hq/parley/pkg/session"
	"github.com/parley-hq/parley/pkg/synthesis"
	"github.com/parley-hq/parley/pkg/types"
)

type stubMail struct{}

func (stubMail) Search(ctx context.Context, filter types.MailFilter) ([]types.MessageSummary, error) {
	return []types.MessageSummary{{Sender: "alice@example.com", Subject: "hello"}}, nil
}

type stubDB struct{}

func (stubDB) QueryReadOnly(ctx context.Context, sqlText string) ([]string, [][]string, error) {
	return []string{"count"}, [][]string{{"42"}}, nil
}

type stubSchemas struct{}

func (stubSchemas) Schema(ctx context.Context) (*types.SchemaContext, error) {
	return &types.SchemaContext{Tables: []types.TableSchema{
		{Name: "orders", Columns: []string{"id", "total"}},
	}}, nil
}

func newTestServer(responses []string) (*echo.Echo, *session.Manager) {
	provider := &llm.ScriptedProvider{Responses: responses}
	synthesizer := synthesis.NewSynthesizer(provider, types.LLMConfig{}, types.PipelineConfig{})

	classifier := intent.NewClassifier()
	classifier.RegisterSchemaTerms([]string{"orders"})

	chat := services.NewChatService(
		classifier,
		synthesizer,
		dispatch.NewDispatcher(stubMail{}, stubDB{}),
		stubSchemas{},
		nil,
		types.PipelineConfig{},
	)

	e := echo.New()
	sessions := session.NewManager(10)
	NewSessionsGroup(e.Group("/api/v1/sessions"), sessions, chat)
	return e, sessions
}

func doRequest(e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, Response) {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp Response
	json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestCreateAndGetSession(t *testing.T) {
	e, sessions := newTestServer(nil)

	rec, resp := doRequest(e, http.MethodPost, "/api/v1/sessions", "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, sessions.Count())

	data := resp.Data.(map[string]interface{})
	id := data["id"].(string)

	rec, resp = doRequest(e, http.MethodGet, "/api/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestGetUnknownSession(t *testing.T) {
	e, _ := newTestServer(nil)

	rec, resp := doRequest(e, http.MethodGet, "/api/v1/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
}

func TestPostMessageSuccess(t *testing.T) {
	e, sessions := newTestServer([]string{`{"sql": "SELECT count(*) FROM orders"}`})
	sess := sessions.Create()

	rec, resp := doRequest(e, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/messages",
		`{"text": "how many rows in the orders table"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "database", data["intent"])
	assert.Len(t, sess.Turns(), 2)
}

func TestPostMessageEmptyText(t *testing.T) {
	e, sessions := newTestServer(nil)
	sess := sessions.Create()

	rec, resp := doRequest(e, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/messages", `{"text": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestPostMessageValidationRejected(t *testing.T) {
	e, sessions := newTestServer([]string{`{"sql": "DROP TABLE orders"}`})
	sess := sessions.Create()

	rec, resp := doRequest(e, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/messages",
		`{"text": "drop the orders table"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, types.ErrorKindValidationRejected, resp.Kind)
	assert.Empty(t, sess.Turns())
}

func TestPostMessageAmbiguous(t *testing.T) {
	e, sessions := newTestServer(nil)
	sess := sessions.Create()

	rec, resp := doRequest(e, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/messages",
		`{"text": "hello there"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, types.ErrorKindClassificationAmbiguous, resp.Kind)
}

func TestResetSession(t *testing.T) {
	e, sessions := newTestServer(nil)
	sess := sessions.Create()
	sess.Append(types.TurnRoleUser, "hello")

	rec, resp := doRequest(e, http.MethodPost, "/api/v1/sessions/"+sess.ID+"/reset", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Empty(t, sess.Turns())
}

func TestDeleteSession(t *testing.T) {
	e, sessions := newTestServer(nil)
	sess := sessions.Create()

	rec, _ := doRequest(e, http.MethodDelete, "/api/v1/sessions/"+sess.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, sessions.Count())
}
