package bot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"duel-game-bot/internal/config"
)

// TestAdminPermissionCheckProperty checks that a user is admin exactly when listed.
func TestAdminPermissionCheckProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		adminIDs := rapid.SliceOfN(rapid.Int64Range(1, 1000000000), 1, 10).Draw(t, "adminIDs")
		cfg := &config.Config{Admin: config.AdminConfig{IDs: adminIDs}}

		userID := rapid.Int64Range(1, 1000000000).Draw(t, "userID")
		if rapid.Bool().Draw(t, "pickKnown") {
			userID = rapid.SampledFrom(adminIDs).Draw(t, "knownAdmin")
		}

		expected := false
		for _, id := range adminIDs {
			if id == userID {
				expected = true
				break
			}
		}

		if got := cfg.IsAdmin(userID); got != expected {
			t.Fatalf("Admin check mismatch: userID=%d, adminIDs=%v, expected=%v, got=%v",
				userID, adminIDs, expected, got)
		}
	})
}

// TestWhitelistEnforcementProperty checks that a group chat passes exactly when whitelisted.
func TestWhitelistEnforcementProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chatIDs := rapid.SliceOfN(rapid.Int64Range(-1000000000, -1), 1, 10).Draw(t, "chatIDs")
		cfg := &config.Config{Whitelist: config.WhitelistConfig{Chats: chatIDs}}

		chatID := rapid.Int64Range(-1000000000, -1).Draw(t, "chatID")
		if rapid.Bool().Draw(t, "pickKnown") {
			chatID = rapid.SampledFrom(chatIDs).Draw(t, "knownChat")
		}

		expected := false
		for _, id := range chatIDs {
			if id == chatID {
				expected = true
				break
			}
		}

		if got := cfg.IsChatAllowed(chatID); got != expected {
			t.Fatalf("Whitelist check mismatch: chatID=%d, whitelistedChats=%v, expected=%v, got=%v",
				chatID, chatIDs, expected, got)
		}
	})
}

// TestPrivateUsersProperty checks that allowed users stay allowed and others stay out.
func TestPrivateUsersProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		users := NewPrivateUsers()
		allowed := rapid.SliceOfNDistinct(rapid.Int64Range(1, 1000), 0, 20, rapid.ID[int64]).Draw(t, "allowed")
		set := map[int64]bool{}
		for _, id := range allowed {
			users.Allow(id)
			set[id] = true
		}

		probe := rapid.Int64Range(1, 1000).Draw(t, "probe")
		if users.Allowed(probe) != set[probe] {
			t.Fatalf("user %d: allowed=%v, expected %v", probe, users.Allowed(probe), set[probe])
		}
	})
}

// fakeContext is a tele.Context with just enough behavior for middleware tests.
type fakeContext struct {
	tele.Context
	chat    *tele.Chat
	sender  *tele.User
	replies []string
}

func (c *fakeContext) Chat() *tele.Chat         { return c.chat }
func (c *fakeContext) Sender() *tele.User       { return c.sender }
func (c *fakeContext) Text() string             { return "/adjust 1 2" }
func (c *fakeContext) Callback() *tele.Callback { return nil }
func (c *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	c.replies = append(c.replies, what.(string))
	return nil
}

func run(mw tele.MiddlewareFunc, c tele.Context) bool {
	called := false
	_ = mw(func(tele.Context) error {
		called = true
		return nil
	})(c)
	return called
}

func TestWhitelistMiddleware(t *testing.T) {
	cfg := &config.Config{Whitelist: config.WhitelistConfig{Chats: []int64{-100}}}
	group := &tele.Chat{ID: -100, Type: tele.ChatGroup}
	other := &tele.Chat{ID: -200, Type: tele.ChatGroup}
	private := &tele.Chat{ID: 7, Type: tele.ChatPrivate}

	t.Run("group must be whitelisted", func(t *testing.T) {
		mw := WhitelistMiddleware(cfg, NewPrivateUsers(), nil)
		assert.True(t, run(mw, &fakeContext{chat: group, sender: &tele.User{ID: 7}}))
		assert.False(t, run(mw, &fakeContext{chat: other, sender: &tele.User{ID: 7}}))
	})

	t.Run("private opens after a whitelisted group", func(t *testing.T) {
		mw := WhitelistMiddleware(cfg, NewPrivateUsers(), nil)
		assert.False(t, run(mw, &fakeContext{chat: private, sender: &tele.User{ID: 7}}))
		assert.True(t, run(mw, &fakeContext{chat: group, sender: &tele.User{ID: 7}}))
		assert.True(t, run(mw, &fakeContext{chat: private, sender: &tele.User{ID: 7}}))
	})

	t.Run("seated players may use private chat", func(t *testing.T) {
		lookups := 0
		seated := func(_ context.Context, id int64) bool {
			lookups++
			return id == 7
		}
		users := NewPrivateUsers()
		mw := WhitelistMiddleware(cfg, users, seated)
		assert.True(t, run(mw, &fakeContext{chat: private, sender: &tele.User{ID: 7}}))
		assert.True(t, run(mw, &fakeContext{chat: private, sender: &tele.User{ID: 7}}))
		assert.Equal(t, 1, lookups)
		assert.False(t, run(mw, &fakeContext{chat: private, sender: &tele.User{ID: 8}}))
	})

	t.Run("empty whitelist allows everything", func(t *testing.T) {
		mw := WhitelistMiddleware(&config.Config{}, NewPrivateUsers(), nil)
		assert.True(t, run(mw, &fakeContext{chat: private, sender: &tele.User{ID: 9}}))
		assert.True(t, run(mw, &fakeContext{chat: other, sender: &tele.User{ID: 9}}))
	})

	t.Run("missing sender is ignored", func(t *testing.T) {
		mw := WhitelistMiddleware(&config.Config{}, NewPrivateUsers(), nil)
		assert.False(t, run(mw, &fakeContext{chat: group}))
	})
}

func TestAdminMiddleware(t *testing.T) {
	mw := AdminMiddleware(&config.Config{Admin: config.AdminConfig{IDs: []int64{42}}})

	admin := &fakeContext{sender: &tele.User{ID: 42}}
	assert.True(t, run(mw, admin))
	assert.Empty(t, admin.replies)

	user := &fakeContext{sender: &tele.User{ID: 43}}
	assert.False(t, run(mw, user))
	assert.Equal(t, []string{"❌ Permission denied: admin only"}, user.replies)
}

func TestRecoveryMiddleware(t *testing.T) {
	c := &fakeContext{sender: &tele.User{ID: 1}}
	err := RecoveryMiddleware()(func(tele.Context) error {
		panic("boom")
	})(c)

	assert.NoError(t, err)
	assert.Equal(t, []string{"❌ Internal error, please try again later"}, c.replies)
}
