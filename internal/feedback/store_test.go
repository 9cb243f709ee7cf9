package feedback

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "feedback", "feedback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

func TestSubmitAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	item, err := s.Submit(ctx, Submission{
		Type:        TypeIssue,
		Title:       "uv not found",
		Description: "PATH lookup fails",
		Priority:    PriorityHigh,
		Tags:        []string{"uv", "env"},
	})
	require.NoError(t, err)
	assert.Len(t, item.ID, 36)
	assert.Equal(t, StatusNew, item.Status)

	got, err := s.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "uv not found", got.Title)
	assert.Equal(t, TypeIssue, got.Type)
	assert.Equal(t, PriorityHigh, got.Priority)
	assert.Equal(t, []string{"uv", "env"}, got.Tags)
	assert.Empty(t, got.Comments)
}

func TestSubmitFallsBackOnUnknownTypeAndPriority(t *testing.T) {
	s := openTestStore(t)
	item, err := s.Submit(context.Background(), Submission{Type: "rant", Title: "x", Priority: "urgent"})
	require.NoError(t, err)
	assert.Equal(t, TypeOther, item.Type)
	assert.Equal(t, PriorityMedium, item.Priority)
	assert.Equal(t, []string{}, item.Tags)
}

func TestSubmitRequiresTitle(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Submit(context.Background(), Submission{Type: TypeIssue, Title: "  "})
	assert.Error(t, err)
}

func TestGetUnknown(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first, err := s.Submit(ctx, Submission{Type: TypeIssue, Title: "first", Tags: []string{"a"}})
	require.NoError(t, err)
	second, err := s.Submit(ctx, Submission{Type: TypeQuestion, Title: "second", Tags: []string{"b"}})
	require.NoError(t, err)
	third, err := s.Submit(ctx, Submission{Type: TypeIssue, Title: "third", Priority: PriorityCritical, Tags: []string{"a", "b"}})
	require.NoError(t, err)

	all, err := s.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	issues, err := s.List(ctx, Filter{Type: TypeIssue})
	require.NoError(t, err)
	assert.Len(t, issues, 2)

	tagged, err := s.List(ctx, Filter{Tag: "b"})
	require.NoError(t, err)
	assert.Len(t, tagged, 2)

	critical, err := s.List(ctx, Filter{Priority: PriorityCritical})
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, third.ID, critical[0].ID)

	limited, err := s.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, third.ID, limited[0].ID)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	item, err := s.Submit(ctx, Submission{Type: TypeImprovement, Title: "faster lookups"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, item.ID, StatusInProgress))
	got, err := s.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	err = s.UpdateStatus(ctx, item.ID, "done")
	assert.True(t, errors.Is(err, ErrInvalidStatus))

	err = s.UpdateStatus(ctx, "missing", StatusClosed)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAddComment(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	item, err := s.Submit(ctx, Submission{Type: TypeQuestion, Title: "where are logs?"})
	require.NoError(t, err)

	require.NoError(t, s.AddComment(ctx, item.ID, "", "under ~/Agentic/logs"))
	require.NoError(t, s.AddComment(ctx, item.ID, "ops", "thanks"))

	got, err := s.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "AI Agent", got.Comments[0].Author)
	assert.Equal(t, "ops", got.Comments[1].Author)

	assert.True(t, errors.Is(s.AddComment(ctx, "missing", "x", "y"), ErrNotFound))
	assert.Error(t, s.AddComment(ctx, item.ID, "x", ""))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Len(t, stats.ByType, len(Types))
	assert.Len(t, stats.ByStatus, len(Statuses))

	a, err := s.Submit(ctx, Submission{Type: TypeIssue, Title: "a", Priority: PriorityHigh})
	require.NoError(t, err)
	_, err = s.Submit(ctx, Submission{Type: TypeIssue, Title: "b"})
	require.NoError(t, err)
	require.NoError(t, s.UpdateStatus(ctx, a.ID, StatusResolved))

	stats, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByType[TypeIssue])
	assert.Equal(t, 0, stats.ByType[TypeQuestion])
	assert.Equal(t, 1, stats.ByStatus[StatusResolved])
	assert.Equal(t, 1, stats.ByStatus[StatusNew])
	assert.Equal(t, 1, stats.ByPriority[PriorityHigh])
	assert.Equal(t, 1, stats.ByPriority[PriorityMedium])
}

func TestParse(t *testing.T) {
	typ, ok := ParseType("Issue")
	assert.True(t, ok)
	assert.Equal(t, TypeIssue, typ)

	_, ok = ParsePriority("whenever")
	assert.False(t, ok)

	st, err := ParseStatus("in_progress")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, st)

	_, err = ParseStatus("done")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
