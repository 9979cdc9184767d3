package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"folio/internal/models"
	"folio/internal/repository"
	"folio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*PostService, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	svc := NewPostService(repository.NewPostRepository(db)).WithClock(func() time.Time { return fixedNow })
	return svc, db
}

func decodeInput(t *testing.T, body string) PostInput {
	t.Helper()
	var in PostInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestCanModify(t *testing.T) {
	post := &models.Post{AuthorID: 7}
	assert.True(t, CanModify(7, post))
	assert.False(t, CanModify(8, post))
	assert.False(t, CanModify(0, &models.Post{}))
	assert.False(t, CanModify(7, nil))
}

func TestPostService_Create_Defaults(t *testing.T) {
	svc, db := newTestService(t)
	author := testutil.CreateUser(t, db, "Ada")

	post, err := svc.Create(context.Background(), author.ID, decodeInput(t, `{"title":"  Hello ","content":"World"}`))
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Equal(t, "Hello", post.Title)
	assert.True(t, post.IsDraft, "is_draft defaults to true")
	assert.Nil(t, post.PublishedAt)
	assert.Equal(t, author.ID, post.AuthorID)
	assert.Equal(t, "Ada", post.Author.Name)
}

func TestPostService_Create_RoundTripThroughEdit(t *testing.T) {
	svc, db := newTestService(t)
	author := testutil.CreateUser(t, db, "Ada")
	ctx := context.Background()

	tests := []struct {
		name      string
		published string
		expect    time.Time
	}{
		{"iso local", "2024-01-01T00:00:00", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"rfc3339 offset", "2024-01-01T02:30:15+02:00", time.Date(2024, 1, 1, 0, 30, 15, 0, time.UTC)},
		{"sub-second", "2024-01-01T00:00:00.987Z", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"canonical", "2024-02-29 23:59:59", time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)},
		{"date only", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := PostInput{
				Title:       Some("T " + tt.name),
				Content:     Some("Body"),
				PublishedAt: Some(tt.published),
				IsDraft:     Some(false),
			}
			created, err := svc.Create(ctx, author.ID, in)
			require.NoError(t, err)

			got, err := svc.GetForEdit(ctx, author.ID, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "T "+tt.name, got.Title)
			assert.Equal(t, "Body", got.Content)
			assert.False(t, got.IsDraft)
			require.NotNil(t, got.PublishedAt)
			assert.True(t, tt.expect.Equal(*got.PublishedAt), "got %s", got.PublishedAt)
		})
	}
}

func TestPostService_Create_Validation(t *testing.T) {
	svc, db := newTestService(t)
	author := testutil.CreateUser(t, db, "Ada")
	ctx := context.Background()

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name   string
		body   string
		fields map[string]string
	}{
		{"empty body", `{}`, map[string]string{
			"title":   "The title field is required.",
			"content": "The content field is required.",
		}},
		{"blank title", `{"title":"   ","content":"x"}`, map[string]string{
			"title": "The title field is required.",
		}},
		{"title too long", `{"title":"` + string(long) + `","content":"x"}`, map[string]string{
			"title": "The title field must not be greater than 255 characters.",
		}},
		{"bad date", `{"title":"t","content":"x","published_at":"next tuesday"}`, map[string]string{
			"published_at": "The published at field must be a valid date.",
		}},
		{"null draft flag", `{"title":"t","content":"x","is_draft":null}`, map[string]string{
			"is_draft": "The is draft field must be true or false.",
		}},
		{"draft flag not boolean", `{"title":"t","content":"x","is_draft":"maybe"}`, map[string]string{
			"is_draft": "The is draft field must be true or false.",
		}},
		{"wrong json types", `{"title":42,"content":["x"],"published_at":false}`, map[string]string{
			"title":        "The title field must be a string.",
			"content":      "The content field must be a string.",
			"published_at": "The published at field must be a valid date.",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, author.ID, decodeInput(t, tt.body))
			require.Error(t, err)

			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.fields, appErr.Fields)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPostService_Create_EmptyPublishedAtIsNull(t *testing.T) {
	svc, db := newTestService(t)
	author := testutil.CreateUser(t, db, "Ada")

	post, err := svc.Create(context.Background(), author.ID, decodeInput(t, `{"title":"t","content":"c","published_at":""}`))
	require.NoError(t, err)
	assert.Nil(t, post.PublishedAt)
}

// failingReloadRepo makes the in-transaction reload fail after the insert.
type failingReloadRepo struct {
	repository.PostRepository
}

func (r failingReloadRepo) Transaction(ctx context.Context, fn func(repository.PostRepository) error) error {
	return r.PostRepository.Transaction(ctx, func(tx repository.PostRepository) error {
		return fn(failingReloadRepo{tx})
	})
}

func (r failingReloadRepo) GetByID(context.Context, uint) (*models.Post, error) {
	return nil, models.NewInternalError(errors.New("reload failed"))
}

func TestPostService_Create_RollsBackOnFailure(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	author := testutil.CreateUser(t, db, "Ada")
	svc := NewPostService(failingReloadRepo{repository.NewPostRepository(db)})

	_, err := svc.Create(context.Background(), author.ID, PostInput{Title: Some("t"), Content: Some("c")})
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeInternal))

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count, "a failed create must leave no row")
}

func TestPostService_Create_RequiresCaller(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), 0, PostInput{Title: Some("t"), Content: Some("c")})
	assert.True(t, models.IsCode(err, models.CodeUnauthorized))
}

func TestPostService_GetPublished_Visibility(t *testing.T) {
	svc, db := newTestService(t)
	author := testutil.CreateUser(t, db, "Ada")
	ctx := context.Background()

	past := testutil.TimePtr(fixedNow.Add(-time.Minute))
	future := testutil.TimePtr(fixedNow.Add(time.Minute))

	tests := []struct {
		name    string
		fixture testutil.PostFixture
		visible bool
	}{
		{"published in the past", testutil.PostFixture{PublishedAt: past}, true},
		{"published exactly now", testutil.PostFixture{PublishedAt: testutil.TimePtr(fixedNow)}, true},
		{"future dated", testutil.PostFixture{PublishedAt: future}, false},
		{"draft with past date", testutil.PostFixture{IsDraft: true, PublishedAt: past}, false},
		{"no publish date", testutil.PostFixture{}, false},
		{"draft without date", testutil.PostFixture{IsDraft: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.CreatePost(t, db, author, tt.fixture)
			got, err := svc.GetPublished(ctx, p.ID)
			if tt.visible {
				require.NoError(t, err)
				assert.Equal(t, p.ID, got.ID)
				assert.Equal(t, "Ada", got.Author.Name)
			} else {
				assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
			}
		})
	}

	_, err := svc.GetPublished(ctx, 9999)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_Ownership(t *testing.T) {
	svc, db := newTestService(t)
	owner := testutil.CreateUser(t, db, "Owner")
	other := testutil.CreateUser(t, db, "Other")
	ctx := context.Background()

	post := testutil.CreatePost(t, db, owner, testutil.PostFixture{Title: "Mine", IsDraft: true})

	_, err := svc.GetForEdit(ctx, other.ID, post.ID)
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	_, err = svc.Update(ctx, other.ID, post.ID, PostInput{Title: Some("Hijacked")})
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	err = svc.Delete(ctx, other.ID, post.ID)
	assert.True(t, models.IsCode(err, models.CodeForbidden))

	unchanged, err := svc.GetForEdit(ctx, owner.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", unchanged.Title)

	_, err = svc.GetForEdit(ctx, owner.ID, post.ID+100)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	_, err = svc.Update(ctx, owner.ID, post.ID+100, PostInput{})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_Update_Partial(t *testing.T) {
	svc, db := newTestService(t)
	author := testutil.CreateUser(t, db, "Ada")
	ctx := context.Background()

	post, err := svc.Create(ctx, author.ID, PostInput{
		Title:       Some("Original"),
		Content:     Some("Body"),
		PublishedAt: Some("2024-01-01 00:00:00"),
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, author.ID, post.ID, decodeInput(t, `{"title":"Renamed"}`))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Body", updated.Content)
	assert.True(t, updated.IsDraft)
	require.NotNil(t, updated.PublishedAt)

	cleared, err := svc.Update(ctx, author.ID, post.ID, decodeInput(t, `{"published_at":null}`))
	require.NoError(t, err)
	assert.Nil(t, cleared.PublishedAt)
	assert.Equal(t, "Renamed", cleared.Title)

	same, err := svc.Update(ctx, author.ID, post.ID, decodeInput(t, `{}`))
	require.NoError(t, err)
	assert.True(t, cleared.UpdatedAt.Equal(same.UpdatedAt))

	_, err = svc.Update(ctx, author.ID, post.ID, decodeInput(t, `{"title":""}`))
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestPostService_DraftThenPublishScenario(t *testing.T) {
	svc, db := newTestService(t)
	u1 := testutil.CreateUser(t, db, "U1")
	ctx := context.Background()

	post, err := svc.Create(ctx, u1.ID, decodeInput(t, `{"title":"Hello","content":"World","is_draft":true,"published_at":null}`))
	require.NoError(t, err)

	_, err = svc.GetPublished(ctx, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	_, err = svc.Update(ctx, u1.ID, post.ID, decodeInput(t, `{"is_draft":false,"published_at":"2024-01-01T00:00:00"}`))
	require.NoError(t, err)

	got, err := svc.GetPublished(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
}

func TestPostService_Delete_Twice(t *testing.T) {
	svc, db := newTestService(t)
	author := testutil.CreateUser(t, db, "Ada")
	ctx := context.Background()

	post := testutil.CreatePost(t, db, author, testutil.PostFixture{})
	require.NoError(t, svc.Delete(ctx, author.ID, post.ID))

	err := svc.Delete(ctx, author.ID, post.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestPostService_List_Pagination(t *testing.T) {
	svc, db := newTestService(t)
	author := testutil.CreateUser(t, db, "Ada")
	ctx := context.Background()

	empty, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 0, empty.LastPage)
	assert.Equal(t, int64(0), empty.Total)

	base := fixedNow.Add(-48 * time.Hour)
	for i := 0; i < 41; i++ {
		testutil.CreatePost(t, db, author, testutil.PostFixture{
			IsDraft:   i%3 == 0,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	tests := []struct {
		page        int
		currentPage int
		count       int
	}{
		{0, 1, 20},
		{-4, 1, 20},
		{1, 1, 20},
		{2, 2, 20},
		{3, 3, 1},
		{4, 4, 0},
		{1 << 40, 1 << 40, 0},
	}
	for _, tt := range tests {
		page, err := svc.List(ctx, tt.page)
		require.NoError(t, err)
		assert.Equal(t, tt.currentPage, page.CurrentPage)
		assert.Len(t, page.Data, tt.count, "page %d", tt.page)
		assert.Equal(t, 3, page.LastPage)
		assert.Equal(t, 20, page.PerPage)
		assert.Equal(t, int64(41), page.Total)
	}

	first, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.True(t, first.Data[0].CreatedAt.After(first.Data[19].CreatedAt))
}

func TestPostService_ListPublished(t *testing.T) {
	svc, db := newTestService(t)
	author := testutil.CreateUser(t, db, "Ada")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		testutil.CreatePost(t, db, author, testutil.PostFixture{PublishedAt: testutil.TimePtr(fixedNow.Add(-time.Hour))})
	}
	testutil.CreatePost(t, db, author, testutil.PostFixture{IsDraft: true, PublishedAt: testutil.TimePtr(fixedNow.Add(-time.Hour))})
	testutil.CreatePost(t, db, author, testutil.PostFixture{PublishedAt: testutil.TimePtr(fixedNow.Add(time.Hour))})

	page, err := svc.ListPublished(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.LastPage)
	for _, p := range page.Data {
		assert.True(t, p.IsActive(fixedNow))
	}

	all, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), all.Total)
}

func TestOptional_UnmarshalJSON(t *testing.T) {
	in := decodeInput(t, `{"title":"x","published_at":null}`)
	assert.True(t, in.Title.Set)
	assert.False(t, in.Title.Null)
	assert.Equal(t, "x", in.Title.Value)
	assert.True(t, in.PublishedAt.Set)
	assert.True(t, in.PublishedAt.Null)
	assert.False(t, in.Content.Set)
	assert.False(t, in.IsDraft.Set)
}

func TestPostService_Create_LooseDraftFlag(t *testing.T) {
	svc, db := newTestService(t)
	author := testutil.CreateUser(t, db, "Ada")
	ctx := context.Background()

	for body, want := range map[string]bool{
		`{"title":"a","content":"x","is_draft":0}`:       false,
		`{"title":"b","content":"x","is_draft":"1"}`:     true,
		`{"title":"c","content":"x","is_draft":"false"}`: false,
	} {
		post, err := svc.Create(ctx, author.ID, decodeInput(t, body))
		require.NoError(t, err, body)
		assert.Equal(t, want, post.IsDraft, body)
	}
}

func TestParsePublishedAt(t *testing.T) {
	got, ok := ParsePublishedAt(" 2024-01-01T10:20 ")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 20, 0, 0, time.UTC), got)

	_, ok = ParsePublishedAt("01/02/2024")
	assert.False(t, ok)
}
