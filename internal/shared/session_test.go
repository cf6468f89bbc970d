package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/rentiva/rentiva/testing"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func commitSession(t *testing.T, sm *SessionManager, sess *Session) {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, sm.Commit(context.Background(), rr, req, sess))
}

func loadWithCookie(t *testing.T, sm *SessionManager, id string) *Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id != "" {
		req.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: id})
	}
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newTestManager(t)

	sess := loadWithCookie(t, sm, "")
	sess.SetUser("u1")
	sess.Set("theme", "dark")
	commitSession(t, sm, sess)

	loaded := loadWithCookie(t, sm, sess.ID)
	assert.Equal(t, "u1", loaded.User())
	assert.Equal(t, "dark", loaded.Get("theme"))
	assert.False(t, loaded.IssuedAt.IsZero())
}

func TestCommitIndexesSessionsByUser(t *testing.T) {
	sm, mr := newTestManager(t)

	sess := loadWithCookie(t, sm, "")
	sess.SetUser("u1")
	commitSession(t, sm, sess)

	members, err := mr.SMembers("user_sessions:u1")
	require.NoError(t, err)
	assert.Equal(t, []string{sess.ID}, members)
}

func TestInvalidateSessionRevokesAll(t *testing.T) {
	sm, mr := newTestManager(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		sess := loadWithCookie(t, sm, "")
		sess.SetUser("u1")
		commitSession(t, sm, sess)
		ids = append(ids, sess.ID)
	}
	other := loadWithCookie(t, sm, "")
	other.SetUser("u2")
	commitSession(t, sm, other)

	require.NoError(t, sm.InvalidateSession(ctx, "u1"))

	for _, id := range ids {
		assert.False(t, mr.Exists("session:"+id), "session %s must be gone", id)
	}
	assert.False(t, mr.Exists("user_sessions:u1"))
	assert.True(t, mr.Exists("session:"+other.ID), "other users keep their sessions")
}

func TestInvalidateSessionNoSessionsIsNoop(t *testing.T) {
	sm, _ := newTestManager(t)

	assert.NoError(t, sm.InvalidateSession(context.Background(), "ghost"))
	assert.NoError(t, sm.InvalidateSession(context.Background(), ""))
}

func TestDestroyRemovesReverseIndexEntry(t *testing.T) {
	sm, mr := newTestManager(t)

	sess := loadWithCookie(t, sm, "")
	sess.SetUser("u1")
	commitSession(t, sm, sess)

	sm.Destroy(sess)
	commitSession(t, sm, sess)

	assert.False(t, mr.Exists("session:"+sess.ID))
	members, _ := mr.SMembers("user_sessions:u1")
	assert.NotContains(t, members, sess.ID)
}

func TestFlashMessagesPopInOrder(t *testing.T) {
	sm, _ := newTestManager(t)

	sess := loadWithCookie(t, sm, "")
	sess.AddFlash(FlashMessage{Kind: "success", Message: "first"})
	sess.AddFlash(FlashMessage{Kind: "error", Message: "second"})

	first := sess.PopFlash()
	require.NotNil(t, first)
	assert.Equal(t, "first", first.Message)

	second := sess.PopFlash()
	require.NotNil(t, second)
	assert.Equal(t, "second", second.Message)

	assert.Nil(t, sess.PopFlash())
}
