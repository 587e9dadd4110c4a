package chatbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/club-pata-amiga/backend/internal/models"
)

type fakeSessions struct {
	byToken map[string]*models.ChatSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byToken: map[string]*models.ChatSession{}}
}

func (f *fakeSessions) Create(_ context.Context, s *models.ChatSession) error {
	for _, prior := range f.byToken {
		if prior.ExternalMemberID == s.ExternalMemberID {
			prior.Active = false
		}
	}
	s.ID = uuid.New()
	s.Active = true
	s.CreatedAt = time.Now()
	f.byToken[s.Token] = s
	return nil
}

func (f *fakeSessions) GetActiveByToken(_ context.Context, token string, now time.Time) (*models.ChatSession, error) {
	s := f.byToken[token]
	if s == nil || !s.Active || !s.ExpiresAt.After(now) {
		return nil, nil
	}
	return s, nil
}

type fakeMembers struct {
	byExternalID map[string]*models.User
}

func (f *fakeMembers) GetByExternalAuthID(_ context.Context, externalID string) (*models.User, error) {
	return f.byExternalID[externalID], nil
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   string                 `json:"error"`
}

func newTestRouter(sessions Sessions, members MemberLookup) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(sessions, members, 2*time.Hour, nil)
	r := gin.New()
	r.POST("/api/auth/session-token", h.CreateSessionToken)
	r.GET("/api/auth/session-token/:token/validate", h.ValidateSessionToken)
	return r
}

func createToken(t *testing.T, r *gin.Engine, memberID string) string {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/session-token",
		strings.NewReader(`{"member_id":"`+memberID+`"}`))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	token, _ := body.Data["token"].(string)
	require.Len(t, token, 64)
	return token
}

func TestSessionTokenRoundTripResolvesMember(t *testing.T) {
	sessions := newFakeSessions()
	members := &fakeMembers{byExternalID: map[string]*models.User{
		"mem_123": {ID: uuid.New(), Email: "maria@example.com", FullName: "Maria Lopez", MembershipStatus: models.MembershipActive},
	}}
	r := newTestRouter(sessions, members)

	token := createToken(t, r, "mem_123")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/session-token/"+token+"/validate", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "mem_123", body.Data["member_id"])
	assert.Equal(t, "active", body.Data["membership_status"])
	member, ok := body.Data["member"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "maria@example.com", member["email"])
}

func TestCreateSessionToken_DeactivatesPriorSession(t *testing.T) {
	sessions := newFakeSessions()
	r := newTestRouter(sessions, nil)

	first := createToken(t, r, "mem_123")
	_ = createToken(t, r, "mem_123")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/session-token/"+first+"/validate", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateSessionToken_RejectsUnknownToken(t *testing.T) {
	r := newTestRouter(newFakeSessions(), nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/session-token/deadbeef/validate", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestValidateSessionToken_UnmappedMemberStillValid(t *testing.T) {
	sessions := newFakeSessions()
	r := newTestRouter(sessions, &fakeMembers{byExternalID: map[string]*models.User{}})

	token := createToken(t, r, "mem_unknown")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/session-token/"+token+"/validate", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "mem_unknown", body.Data["member_id"])
	_, hasMember := body.Data["member"]
	assert.False(t, hasMember)
}
