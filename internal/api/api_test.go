package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammar1510/voicelink/internal/audio"
	"github.com/ammar1510/voicelink/internal/auth"
	"github.com/ammar1510/voicelink/internal/chat"
	"github.com/ammar1510/voicelink/internal/models"
	"github.com/ammar1510/voicelink/internal/push"
	"github.com/ammar1510/voicelink/internal/store"
)

// stubStore satisfies the store interface for the handful of calls the
// handlers under test reach. Anything else would hit the embedded nil
// interface and fail loudly.
type stubStore struct {
	store.StoreInterface
	profile *models.Profile
}

func (s *stubStore) GetProfileByUID(uid string) (*models.Profile, error) {
	if s.profile == nil || s.profile.UID != uid {
		return nil, store.ErrProfileNotFound
	}
	return s.profile, nil
}

type nopPlayer struct{}

func (nopPlayer) Play(url string) error        { return nil }
func (nopPlayer) Stop() error                  { return nil }
func (nopPlayer) Status() audio.PlaybackStatus { return audio.StatusStopped }
func (nopPlayer) SetOnFinished(fn func())      {}

func newTestRouter(t *testing.T) (*gin.Engine, *chat.Session) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.InitJWTKey([]byte("test-secret"))

	session := chat.NewSession(chat.SessionConfig{
		Store:  &stubStore{profile: &models.Profile{UID: "bob", Name: "Bob", Email: "bob@example.com"}},
		Player: nopPlayer{},
	})
	require.NoError(t, session.Initialize("bob", nil))

	hash, err := auth.HashAccessKey("sesame")
	require.NoError(t, err)

	router := gin.New()
	RegisterRoutes(router, &Handlers{
		Auth:          NewAuthHandler(session, hash),
		Conversations: NewConversationHandler(session),
		Friends:       NewFriendHandler(session),
		Push:          NewPushHandler(session.Push),
	})
	return router, session
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func loginToken(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/auth/login", "", gin.H{"access_key": "sesame"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLogin_Success(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/login", "", gin.H{"access_key": "sesame"})

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token   string                 `json:"token"`
		Profile models.ProfileResponse `json:"profile"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Bob", resp.Profile.Name)
}

func TestLogin_WrongKey(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/login", "", gin.H{"access_key": "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_MissingKey(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/auth/login", "", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	w = doJSON(router, http.MethodGet, "/me", "not.a.token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_ReturnsProfile(t *testing.T) {
	router, _ := newTestRouter(t)
	token := loginToken(t, router)

	w := doJSON(router, http.MethodGet, "/me", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var profile models.ProfileResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "bob", profile.UID)
}

func TestConversations_EmptyList(t *testing.T) {
	router, _ := newTestRouter(t)
	token := loginToken(t, router)

	w := doJSON(router, http.MethodGet, "/conversations", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestMessages_UnknownConversation(t *testing.T) {
	router, _ := newTestRouter(t)
	token := loginToken(t, router)

	w := doJSON(router, http.MethodGet, "/conversations/nope/messages", token, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettings_RoundTrip(t *testing.T) {
	router, session := newTestRouter(t)
	token := loginToken(t, router)

	w := doJSON(router, http.MethodPut, "/settings", token, chat.AudioSettings{
		AutoplayEnabled: false,
		PlaybackSpeed:   1.5,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.False(t, session.Settings().AutoplayEnabled)
	assert.Equal(t, 1.5, session.Settings().PlaybackSpeed)

	w = doJSON(router, http.MethodGet, "/settings", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var settings chat.AudioSettings
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	assert.Equal(t, 1.5, settings.PlaybackSpeed)
}

func TestAutoplayStop(t *testing.T) {
	router, _ := newTestRouter(t)
	token := loginToken(t, router)

	w := doJSON(router, http.MethodPost, "/autoplay/stop", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPushEvents_Dispatch(t *testing.T) {
	router, session := newTestRouter(t)
	token := loginToken(t, router)

	var clicked []push.NotificationData
	session.Push.OnClick(func(data push.NotificationData) { clicked = append(clicked, data) })

	w := doJSON(router, http.MethodPost, "/push/events", token, gin.H{
		"event": "click",
		"data":  gin.H{"conversationId": "c1", "notificationType": "new_message"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, clicked, 1)
	assert.Equal(t, "c1", clicked[0].ConversationID)
}

func TestPushEvents_UnknownEvent(t *testing.T) {
	router, _ := newTestRouter(t)
	token := loginToken(t, router)

	w := doJSON(router, http.MethodPost, "/push/events", token, gin.H{"event": "shake"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
