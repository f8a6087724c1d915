package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/IdoNaor1/TasteClub/internal/app/model"
	"github.com/IdoNaor1/TasteClub/internal/db"
)

func setupCacheTest(t *testing.T) (*gorm.DB, *ChangeHub) {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })
	return testDB, NewChangeHub()
}

func receive[T any](t *testing.T, c <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-c:
		require.True(t, ok, "watch closed unexpectedly")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch value")
	}
	var zero T
	return zero
}

func TestUserDAO(t *testing.T) {
	ctx := context.Background()
	testDB, hub := setupCacheTest(t)
	dao := NewUserDAO(testDB, hub)

	missing, err := dao.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, dao.Upsert(ctx, &model.User{UID: "u1", UserName: "alice", CreatedAt: 10, LastUpdated: 10}))
	require.NoError(t, dao.Upsert(ctx, &model.User{UID: "u1", UserName: "alice2", CreatedAt: 10, LastUpdated: 20}))

	user, err := dao.GetByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice2", user.UserName)
	assert.Equal(t, int64(20), user.LastUpdated)

	require.NoError(t, dao.DeleteByID(ctx, "u1"))
	user, err = dao.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestReviewDAO_ListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	testDB, hub := setupCacheTest(t)
	dao := NewReviewDAO(testDB, hub)

	var reviews []model.Review
	for i := 1; i <= 6; i++ {
		reviews = append(reviews, model.Review{
			ID:           fmt.Sprintf("r%d", i),
			UserID:       fmt.Sprintf("u%d", i%2),
			RestaurantID: fmt.Sprintf("p%d", i%3),
			Rating:       3,
			LikedBy:      []string{"x"},
			CreatedAt:    int64(i * 100),
		})
	}
	require.NoError(t, dao.UpsertAll(ctx, reviews))
	require.NoError(t, dao.UpsertAll(ctx, nil))

	count, err := dao.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), count)

	ids := func(rs []model.Review) []string {
		out := []string{}
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}
	before := int64(500)

	tests := []struct {
		name  string
		query ReviewQuery
		want  []string
	}{
		{name: "all newest first", query: ReviewQuery{}, want: []string{"r6", "r5", "r4", "r3", "r2", "r1"}},
		{name: "first page", query: ReviewQuery{Limit: 2}, want: []string{"r6", "r5"}},
		{name: "exclusive cursor", query: ReviewQuery{Before: &before, Limit: 2}, want: []string{"r4", "r3"}},
		{name: "by user", query: ReviewQuery{UserID: "u1"}, want: []string{"r5", "r3", "r1"}},
		{name: "by restaurant", query: ReviewQuery{RestaurantID: "p0"}, want: []string{"r6", "r3"}},
		{name: "user and restaurant", query: ReviewQuery{UserID: "u0", RestaurantID: "p1"}, want: []string{"r4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dao.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	one, err := dao.GetByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, one.LikedBy)

	require.NoError(t, dao.DeleteAll(ctx))
	count, err = dao.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRestaurantDAO(t *testing.T) {
	ctx := context.Background()
	testDB, hub := setupCacheTest(t)
	dao := NewRestaurantDAO(testDB, hub)

	require.NoError(t, dao.UpsertAll(ctx, []model.Restaurant{
		{ID: "a", Name: "A", CreatedAt: 1},
		{ID: "b", Name: "B", CreatedAt: 2},
		{ID: "c", Name: "C", CreatedAt: 3},
	}))

	page, err := dao.List(ctx, 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].ID)

	cursor := page[1].CreatedAt
	rest, err := dao.List(ctx, 2, &cursor)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "a", rest[0].ID)

	require.NoError(t, dao.Upsert(ctx, &model.Restaurant{ID: "a", Name: "A2", AverageRating: 4.5, NumReviews: 2, CreatedAt: 1}))
	got, err := dao.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A2", got.Name)
	assert.Equal(t, 2, got.NumReviews)

	require.NoError(t, dao.DeleteByID(ctx, "a"))
	got, err = dao.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestObserve_EmitsCurrentThenChanges(t *testing.T) {
	ctx := context.Background()
	testDB, hub := setupCacheTest(t)
	dao := NewRestaurantDAO(testDB, hub)

	watch := dao.Observe(ctx, "p1")
	assert.Nil(t, receive(t, watch.C))

	require.NoError(t, dao.Upsert(ctx, &model.Restaurant{ID: "p1", Name: "First"}))
	got := receive(t, watch.C)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Name)

	watch.Unsubscribe()
	_, ok := <-watch.C
	assert.False(t, ok, "channel closed after unsubscribe")
	assert.Zero(t, hub.Subscribers(restaurantTopic("p1")))

	watch.Unsubscribe()
}

func TestObserveList_FollowsWrites(t *testing.T) {
	ctx := context.Background()
	testDB, hub := setupCacheTest(t)
	dao := NewReviewDAO(testDB, hub)

	watch := dao.ObserveList(ctx, ReviewQuery{UserID: "u1"})
	defer watch.Unsubscribe()
	assert.Empty(t, receive(t, watch.C))

	require.NoError(t, dao.Upsert(ctx, &model.Review{ID: "r1", UserID: "u1", Rating: 4, CreatedAt: 5}))
	assert.Eventually(t, func() bool {
		select {
		case rs := <-watch.C:
			return len(rs) == 1 && rs[0].ID == "r1"
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestObserve_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	testDB, hub := setupCacheTest(t)
	dao := NewUserDAO(testDB, hub)

	watch := dao.Observe(ctx, "u1")
	receive(t, watch.C)
	cancel()

	select {
	case <-watch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after context cancel")
	}
	assert.Zero(t, hub.Subscribers(userTopic("u1")))
}

func TestChangeHub_CoalescesSignals(t *testing.T) {
	hub := NewChangeHub()
	sub := hub.register("t")
	defer hub.unregister(sub)

	hub.Publish("t")
	hub.Publish("t")
	hub.Publish("other")

	assert.Len(t, sub.signal, 1)
}
