package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/anonto42/writers-guild/backend/internal/handlers"
	"github.com/anonto42/writers-guild/backend/internal/models"
	"github.com/anonto42/writers-guild/backend/internal/realtime"
	"github.com/anonto42/writers-guild/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtectedRoutesRequireSession(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/v1/notifications", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/notifications", nil, &http.Cookie{Name: services.SessionCookieName, Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupSignsInAndLogoutRevokes(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/v1/auth/signup", models.SignupRequest{
		Username: "ada",
		Email:    "Ada@Example.com",
		Password: "correct horse",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == services.SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	rec = app.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		User models.User `json:"user"`
	}
	decode(t, rec, &me)
	assert.Equal(t, "ada@example.com", me.User.Email)

	rec = app.do(t, http.MethodPost, "/api/v1/auth/signin", models.SignInRequest{Email: "ada@example.com", Password: "wrong password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(t, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDoubleLikeIsRejected(t *testing.T) {
	app := newTestApp(t)
	alice, bob := app.user(t, "alice"), app.user(t, "bob")
	post := app.post(t, alice, "Ode")
	path := fmt.Sprintf("/api/v1/posts/%s/likes", post.ID.Hex())
	cookie := app.login(t, bob)

	rec := app.do(t, http.MethodPost, path, nil, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = app.do(t, http.MethodPost, path, nil, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	stored, err := app.posts.GetPostByID(context.Background(), post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LikesCount)

	rec = app.do(t, http.MethodGet, path+"/count", nil, cookie)
	var count struct {
		LikesCount int64 `json:"likes_count"`
	}
	decode(t, rec, &count)
	assert.Equal(t, int64(1), count.LikesCount)
	assert.Len(t, app.notifications(t, alice.ID), 1)
}

func TestSelfLikeDoesNotNotify(t *testing.T) {
	app := newTestApp(t)
	alice := app.user(t, "alice")
	post := app.post(t, alice, "Mirror")
	tab := app.open(alice.ID)

	rec := app.do(t, http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/likes", nil, app.login(t, alice))
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Empty(t, app.notifications(t, alice.ID))
	assert.Empty(t, tab.events())
}

func TestLikeWhileOfflineIsDeliveredLater(t *testing.T) {
	app := newTestApp(t)
	alice, bob := app.user(t, "alice"), app.user(t, "bob")
	post := app.post(t, alice, "Sonnet")

	rec := app.do(t, http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/likes", nil, app.login(t, bob))
	require.Equal(t, http.StatusCreated, rec.Code)

	aliceCookie := app.login(t, alice)
	rec = app.do(t, http.MethodGet, "/api/v1/notifications", nil, aliceCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Notifications []handlers.EnrichedNotification `json:"notifications"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Notifications, 1)
	n := list.Notifications[0]
	assert.Equal(t, models.NotificationLike, n.Type)
	assert.Equal(t, bob.ID, n.Actor.ID)
	assert.Equal(t, "Sonnet", n.Payload["post_title"])
	assert.False(t, n.IsRead)

	rec = app.do(t, http.MethodGet, "/api/v1/notifications/unread-count", nil, aliceCookie)
	var unread struct {
		Count int64 `json:"count"`
	}
	decode(t, rec, &unread)
	assert.Equal(t, int64(1), unread.Count)

	rec = app.do(t, http.MethodPut, "/api/v1/notifications/read-all", nil, aliceCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(t, http.MethodGet, "/api/v1/notifications/unread-count", nil, aliceCookie)
	decode(t, rec, &unread)
	assert.Zero(t, unread.Count)
}

func TestMarkingAnotherUsersNotificationIsNotFound(t *testing.T) {
	app := newTestApp(t)
	alice, bob := app.user(t, "alice"), app.user(t, "bob")
	post := app.post(t, alice, "Elegy")
	bobCookie := app.login(t, bob)

	app.do(t, http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/likes", nil, bobCookie)
	stored := app.notifications(t, alice.ID)
	require.Len(t, stored, 1)

	rec := app.do(t, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/read", stored[0].ID), nil, bobCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, app.notifications(t, alice.ID)[0].IsRead)

	rec = app.do(t, http.MethodPut, fmt.Sprintf("/api/v1/notifications/%d/read", stored[0].ID), nil, app.login(t, alice))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, app.notifications(t, alice.ID)[0].IsRead)
}

func TestCommentPushesOnceToOpenChannel(t *testing.T) {
	app := newTestApp(t)
	alice, bob := app.user(t, "alice"), app.user(t, "bob")
	post := app.post(t, alice, "Haiku")
	tab := app.open(alice.ID)

	rec := app.do(t, http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/comments",
		models.CreateCommentRequest{Content: "lovely"}, app.login(t, bob))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	events := tab.events()
	require.Len(t, events, 1)
	assert.Equal(t, realtime.EventNotification, events[0].Type)
	data, ok := events[0].Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, models.NotificationComment, data["type"])

	stored := app.notifications(t, alice.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, "lovely", stored[0].Payload["excerpt"])

	updated, err := app.posts.GetPostByID(context.Background(), post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, updated.CommentsCount)
}

func TestMentionsNotifyEachUserOnce(t *testing.T) {
	app := newTestApp(t)
	alice, bob, carol := app.user(t, "alice"), app.user(t, "bob"), app.user(t, "carol")
	post := app.post(t, alice, "Villanelle")

	rec := app.do(t, http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/comments",
		models.CreateCommentRequest{Content: "@alice see this @carol @Carol and @ghost"}, app.login(t, bob))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	aliceGot := app.notifications(t, alice.ID)
	require.Len(t, aliceGot, 1)
	assert.Equal(t, models.NotificationComment, aliceGot[0].Type)

	carolGot := app.notifications(t, carol.ID)
	require.Len(t, carolGot, 1)
	assert.Equal(t, models.NotificationMention, carolGot[0].Type)
	assert.Equal(t, bob.ID, carolGot[0].ActorID)

	assert.Empty(t, app.notifications(t, bob.ID))
}

func TestFollowDirectionsAreIndependent(t *testing.T) {
	app := newTestApp(t)
	alice, bob := app.user(t, "alice"), app.user(t, "bob")
	aliceCookie, bobCookie := app.login(t, alice), app.login(t, bob)

	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, aliceCookie).Code)
	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), nil, bobCookie).Code)
	assert.Equal(t, http.StatusConflict, app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, aliceCookie).Code)
	assert.Equal(t, http.StatusBadRequest, app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), nil, aliceCookie).Code)

	require.Equal(t, http.StatusOK, app.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, aliceCookie).Code)

	rec := app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", alice.ID), nil, bobCookie)
	var profile struct {
		User        models.User `json:"user"`
		IsFollowing bool        `json:"is_following"`
	}
	decode(t, rec, &profile)
	assert.True(t, profile.IsFollowing, "bob still follows alice")
	assert.Equal(t, 1, profile.User.FollowersCount)
	assert.Zero(t, profile.User.FollowingCount)

	rec = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", bob.ID), nil, aliceCookie)
	decode(t, rec, &profile)
	assert.False(t, profile.IsFollowing)

	assert.Len(t, app.notifications(t, bob.ID), 1)
	assert.Len(t, app.notifications(t, alice.ID), 1)
}

func TestFeedIncludesFollowedAuthors(t *testing.T) {
	app := newTestApp(t)
	alice, bob, carol := app.user(t, "alice"), app.user(t, "bob"), app.user(t, "carol")
	aliceCookie := app.login(t, alice)
	app.post(t, bob, "From bob")
	app.post(t, carol, "From carol")
	app.post(t, alice, "From alice")

	app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, aliceCookie)

	rec := app.do(t, http.MethodGet, "/api/v1/feed", nil, aliceCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed struct {
		Posts []handlers.EnrichedPost `json:"posts"`
	}
	decode(t, rec, &feed)

	var titles []string
	for _, p := range feed.Posts {
		titles = append(titles, p.Title)
	}
	assert.ElementsMatch(t, []string{"From bob", "From alice"}, titles)
}

func TestMessageReachesEveryRecipientTab(t *testing.T) {
	app := newTestApp(t)
	alice, bob := app.user(t, "alice"), app.user(t, "bob")
	first, second := app.open(bob.ID), app.open(bob.ID)
	senderTab := app.open(alice.ID)

	rec := app.do(t, http.MethodPost, "/api/v1/messages",
		models.SendMessageRequest{RecipientID: bob.ID, Content: "hello"}, app.login(t, alice))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, tab := range []*captureChannel{first, second} {
		events := tab.events()
		require.Len(t, events, 1)
		assert.Equal(t, realtime.EventNewMessage, events[0].Type)
	}
	assert.Empty(t, senderTab.events())

	bobCookie := app.login(t, bob)
	rec = app.do(t, http.MethodGet, "/api/v1/conversations", nil, bobCookie)
	var convs struct {
		Conversations []handlers.ConversationSummary `json:"conversations"`
	}
	decode(t, rec, &convs)
	require.Len(t, convs.Conversations, 1)
	assert.Equal(t, alice.ID, convs.Conversations[0].Participant.ID)
	assert.Equal(t, int64(1), convs.Conversations[0].UnreadCount)

	outsider := app.login(t, app.user(t, "carol"))
	rec = app.do(t, http.MethodGet, fmt.Sprintf("/api/v1/conversations/%d/messages", convs.Conversations[0].ID), nil, outsider)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/v1/messages",
		models.SendMessageRequest{RecipientID: alice.ID, Content: "me"}, app.login(t, alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCollaborationAcceptFlow(t *testing.T) {
	app := newTestApp(t)
	alice, bob := app.user(t, "alice"), app.user(t, "bob")
	post := app.post(t, alice, "Duet")
	aliceCookie, bobCookie := app.login(t, alice), app.login(t, bob)
	path := "/api/v1/posts/" + post.ID.Hex() + "/collaborators"

	rec := app.do(t, http.MethodPost, path, models.CreateInviteRequest{InviteeID: bob.ID}, bobCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(t, http.MethodPost, path, models.CreateInviteRequest{InviteeID: bob.ID}, aliceCookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Invite models.CollaborationInvite `json:"invite"`
	}
	decode(t, rec, &created)

	rec = app.do(t, http.MethodPost, path, models.CreateInviteRequest{InviteeID: bob.ID}, aliceCookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	invited := app.notifications(t, bob.ID)
	require.Len(t, invited, 1)
	assert.Equal(t, models.NotificationCollaborationInvite, invited[0].Type)

	acceptPath := fmt.Sprintf("/api/v1/collaborations/%d/accept", created.Invite.ID)
	rec = app.do(t, http.MethodPost, acceptPath, nil, aliceCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code, "only the invitee may answer")

	tab := app.open(alice.ID)
	rec = app.do(t, http.MethodPost, acceptPath, nil, bobCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := app.posts.GetPostByID(context.Background(), post.ID.Hex())
	require.NoError(t, err)
	assert.True(t, stored.HasCollaborator(bob.ID))

	accepted := app.notifications(t, alice.ID)
	require.Len(t, accepted, 1)
	assert.Equal(t, models.NotificationCollaborationAccepted, accepted[0].Type)
	assert.Len(t, tab.events(), 1)

	rec = app.do(t, http.MethodPost, fmt.Sprintf("/api/v1/collaborations/%d/decline", created.Invite.ID), nil, bobCookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(t, http.MethodPut, "/api/v1/posts/"+post.ID.Hex(), models.UpdatePostRequest{Title: "Duet, revised"}, bobCookie)
	assert.Equal(t, http.StatusOK, rec.Code, "collaborators may edit")
}

func TestReportRules(t *testing.T) {
	app := newTestApp(t)
	alice, bob := app.user(t, "alice"), app.user(t, "bob")
	admin := app.user(t, "moderator")
	require.NoError(t, app.db.Model(admin).Update("is_admin", true).Error)
	post := app.post(t, alice, "Limerick")
	path := "/api/v1/posts/" + post.ID.Hex() + "/report"

	rec := app.do(t, http.MethodPost, path, models.CreateReportRequest{Reason: "my own"}, app.login(t, alice))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	bobCookie := app.login(t, bob)
	rec = app.do(t, http.MethodPost, path, models.CreateReportRequest{Reason: "plagiarised"}, bobCookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = app.do(t, http.MethodPost, path, models.CreateReportRequest{Reason: "plagiarised"}, bobCookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	alerts := app.notifications(t, admin.ID)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.NotificationReport, alerts[0].Type)
	assert.Empty(t, app.notifications(t, alice.ID))
}

func TestRepostAndBookmark(t *testing.T) {
	app := newTestApp(t)
	alice, bob := app.user(t, "alice"), app.user(t, "bob")
	post := app.post(t, alice, "Epic")
	bobCookie := app.login(t, bob)
	repostPath := "/api/v1/posts/" + post.ID.Hex() + "/repost"
	savePath := "/api/v1/posts/" + post.ID.Hex() + "/save"

	rec := app.do(t, http.MethodPost, repostPath, models.CreateRepostRequest{Quote: "read this"}, bobCookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = app.do(t, http.MethodPost, repostPath, models.CreateRepostRequest{}, bobCookie)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.do(t, http.MethodPost, repostPath, models.CreateRepostRequest{}, app.login(t, alice))
	require.Equal(t, http.StatusCreated, rec.Code, "own posts may be reposted")

	reposts := app.notifications(t, alice.ID)
	require.Len(t, reposts, 1, "only bob's repost notifies")
	assert.Equal(t, models.NotificationRepost, reposts[0].Type)

	require.Equal(t, http.StatusOK, app.do(t, http.MethodPost, savePath, nil, bobCookie).Code)
	assert.Equal(t, http.StatusConflict, app.do(t, http.MethodPost, savePath, nil, bobCookie).Code)

	rec = app.do(t, http.MethodGet, "/api/v1/bookmarks", nil, bobCookie)
	var bookmarks struct {
		Posts []handlers.EnrichedPost `json:"posts"`
	}
	decode(t, rec, &bookmarks)
	require.Len(t, bookmarks.Posts, 1)
	assert.True(t, bookmarks.Posts[0].IsSaved)
	assert.True(t, bookmarks.Posts[0].IsReposted)
	assert.Equal(t, 1, bookmarks.Posts[0].BookmarksCount)
	assert.Equal(t, 2, bookmarks.Posts[0].RepostsCount)

	require.Equal(t, http.StatusOK, app.do(t, http.MethodDelete, savePath, nil, bobCookie).Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodDelete, savePath, nil, bobCookie).Code)
	assert.Len(t, app.notifications(t, alice.ID), 1, "bookmarks notify nobody")
}
