package services

import (
	"context"
	"sync"
	"testing"

	"readlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLike_AddThenRemove(t *testing.T) {
	conn := newTestDB(t)
	svc := NewInteractionService(conn)
	ctx := context.Background()

	a := createUser(t, conn, "a")
	b := createUser(t, conn, "b")
	post := createPost(t, conn, a, "데미안")

	res, err := svc.ToggleLike(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAdded, res.State)
	assert.True(t, res.Active())
	assert.EqualValues(t, 1, res.Count)
	assert.Equal(t, 1, reloadPost(t, conn, post.ID).LikeCount)

	liked, err := svc.IsLiked(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	res, err = svc.ToggleLike(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRemoved, res.State)
	assert.EqualValues(t, 0, res.Count)
	assert.Equal(t, 0, reloadPost(t, conn, post.ID).LikeCount)
	assert.EqualValues(t, 0, countRows(t, conn, &models.Like{}, "post_id = ?", post.ID))
}

func TestToggleRepost_CounterMatchesRows(t *testing.T) {
	conn := newTestDB(t)
	svc := NewInteractionService(conn)
	ctx := context.Background()

	author := createUser(t, conn, "author")
	post := createPost(t, conn, author, "")
	readers := []*models.User{
		createUser(t, conn, "r1"),
		createUser(t, conn, "r2"),
		createUser(t, conn, "r3"),
	}

	// r1 on, r2 on, r3 on, r2 off, r1 off, r1 on
	sequence := []int{0, 1, 2, 1, 0, 0}
	for _, i := range sequence {
		_, err := svc.ToggleRepost(ctx, readers[i].ID, post.ID)
		require.NoError(t, err)

		rows := countRows(t, conn, &models.Repost{}, "post_id = ?", post.ID)
		assert.EqualValues(t, rows, reloadPost(t, conn, post.ID).RepostCount)
	}
	assert.Equal(t, 2, reloadPost(t, conn, post.ID).RepostCount)
}

func TestSetLike_Idempotent(t *testing.T) {
	conn := newTestDB(t)
	svc := NewInteractionService(conn)
	ctx := context.Background()

	a := createUser(t, conn, "a")
	b := createUser(t, conn, "b")
	post := createPost(t, conn, a, "")

	for i := 0; i < 3; i++ {
		res, err := svc.SetLike(ctx, b.ID, post.ID, true)
		require.NoError(t, err)
		assert.Equal(t, StateAdded, res.State)
		assert.EqualValues(t, 1, res.Count)
	}
	assert.EqualValues(t, 1, countRows(t, conn, &models.Notification{}, "user_id = ?", a.ID))

	for i := 0; i < 2; i++ {
		res, err := svc.SetLike(ctx, b.ID, post.ID, false)
		require.NoError(t, err)
		assert.Equal(t, StateRemoved, res.State)
		assert.EqualValues(t, 0, res.Count)
	}
}

func TestSetLike_ConcurrentAddsCreateOneRow(t *testing.T) {
	conn := newTestDB(t)
	svc := NewInteractionService(conn)
	ctx := context.Background()

	a := createUser(t, conn, "a")
	b := createUser(t, conn, "b")
	post := createPost(t, conn, a, "")

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.SetLike(ctx, b.ID, post.ID, true)
			if err == nil && res.Count != 1 {
				t.Errorf("count = %d, want 1", res.Count)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.EqualValues(t, 1, countRows(t, conn, &models.Like{}, "user_id = ? AND post_id = ?", b.ID, post.ID))
	assert.Equal(t, 1, reloadPost(t, conn, post.ID).LikeCount)
	assert.EqualValues(t, 1, countRows(t, conn, &models.Notification{}, "user_id = ? AND type = ?", a.ID, models.NotificationTypeLike))
}

func TestToggleLike_ConcurrentUsersKeepCounter(t *testing.T) {
	conn := newTestDB(t)
	svc := NewInteractionService(conn)
	ctx := context.Background()

	author := createUser(t, conn, "author")
	post := createPost(t, conn, author, "")
	var users []*models.User
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5", "u6"} {
		users = append(users, createUser(t, conn, name))
	}

	var wg sync.WaitGroup
	for _, u := range users {
		for k := 0; k < 3; k++ {
			wg.Add(1)
			go func(userID uint) {
				defer wg.Done()
				_, err := svc.ToggleLike(ctx, userID, post.ID)
				assert.NoError(t, err)
			}(u.ID)
		}
	}
	wg.Wait()

	rows := countRows(t, conn, &models.Like{}, "post_id = ?", post.ID)
	assert.EqualValues(t, rows, reloadPost(t, conn, post.ID).LikeCount)
}

func TestToggleLike_SelfLikeDoesNotNotify(t *testing.T) {
	conn := newTestDB(t)
	svc := NewInteractionService(conn)
	ctx := context.Background()

	a := createUser(t, conn, "a")
	post := createPost(t, conn, a, "")

	res, err := svc.ToggleLike(ctx, a.ID, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Count)
	assert.EqualValues(t, 0, countRows(t, conn, &models.Notification{}, "user_id = ?", a.ID))
}

func TestToggleLike_UnknownPost(t *testing.T) {
	conn := newTestDB(t)
	svc := NewInteractionService(conn)
	b := createUser(t, conn, "b")

	_, err := svc.ToggleLike(context.Background(), b.ID, 999)
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = svc.SetRepost(context.Background(), b.ID, 999, true)
	assert.ErrorIs(t, err, ErrPostNotFound)

	assert.EqualValues(t, 0, countRows(t, conn, &models.Like{}, "user_id = ?", b.ID))
	assert.EqualValues(t, 0, countRows(t, conn, &models.Repost{}, "user_id = ?", b.ID))
}

func TestToggleLike_AnonymousRejected(t *testing.T) {
	conn := newTestDB(t)
	svc := NewInteractionService(conn)
	a := createUser(t, conn, "a")
	post := createPost(t, conn, a, "")

	_, err := svc.ToggleLike(context.Background(), 0, post.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.SetRepost(context.Background(), 0, post.ID, true)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, reloadPost(t, conn, post.ID).LikeCount)
}

func TestLikedPostIDs(t *testing.T) {
	conn := newTestDB(t)
	svc := NewInteractionService(conn)
	ctx := context.Background()

	a := createUser(t, conn, "a")
	b := createUser(t, conn, "b")
	p1 := createPost(t, conn, a, "one")
	p2 := createPost(t, conn, a, "two")
	p3 := createPost(t, conn, a, "three")

	_, err := svc.SetLike(ctx, b.ID, p1.ID, true)
	require.NoError(t, err)
	_, err = svc.SetRepost(ctx, b.ID, p3.ID, true)
	require.NoError(t, err)

	liked, err := svc.LikedPostIDs(ctx, b.ID, []uint{p1.ID, p2.ID, p3.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{p1.ID: true}, liked)

	reposted, err := svc.RepostedPostIDs(ctx, b.ID, []uint{p1.ID, p2.ID, p3.ID})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{p3.ID: true}, reposted)

	anon, err := svc.LikedPostIDs(ctx, 0, []uint{p1.ID})
	require.NoError(t, err)
	assert.Empty(t, anon)
}

// A(1) posts, B(2) likes twice, A reads the notification.
func TestWorkedExample(t *testing.T) {
	conn := newTestDB(t)
	interactions := NewInteractionService(conn)
	notifications := NewNotificationService(conn)
	ctx := context.Background()

	a := createUser(t, conn, "a")
	b := createUser(t, conn, "b")
	post := createPost(t, conn, a, "데미안")

	res, err := interactions.ToggleLike(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAdded, res.State)
	assert.EqualValues(t, 1, res.Count)

	var n models.Notification
	require.NoError(t, conn.Where("user_id = ?", a.ID).First(&n).Error)
	assert.Equal(t, b.ID, n.ActorID)
	assert.Equal(t, models.NotificationTypeLike, n.Type)
	require.NotNil(t, n.PostID)
	assert.Equal(t, post.ID, *n.PostID)
	assert.False(t, n.IsRead)

	res, err = interactions.ToggleLike(ctx, b.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRemoved, res.State)
	assert.EqualValues(t, 0, res.Count)
	assert.EqualValues(t, 1, countRows(t, conn, &models.Notification{}, "user_id = ?", a.ID))

	unread, err := notifications.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	require.NoError(t, notifications.MarkAllRead(ctx, a.ID))
	unread, err = notifications.UnreadCount(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)
}
