package viewmodel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docportal/internal/gateway"
	gwMocks "docportal/internal/gateway/mocks"
	"docportal/internal/model"
)

func pageOf(n, page, size int, total int64, status model.DocumentStatus) *model.PageResponse[model.Document] {
	docs := make([]model.Document, n)
	for i := range docs {
		docs[i] = model.Document{ID: int64(page*size + i + 1), Title: "doc", Status: status}
	}
	p := model.NewPageResponse(docs, page, size, total)
	return &p
}

func withPage(page int) interface{} {
	return mock.MatchedBy(func(p gateway.ListParams) bool { return p.Page == page })
}

type stateRecorder struct {
	mu     sync.Mutex
	states []State
}

func (r *stateRecorder) record(s ListSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s.State)
}

func TestList_Mount(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	rec := &stateRecorder{}
	l := NewList(gw, OnListChange(rec.record))

	assert.Equal(t, Idle, l.Snapshot().State)

	gw.On("List", ctx, gateway.ListParams{
		Page: 0, Size: 10, SortBy: "createdAt", SortDirection: "DESC",
	}).Return(pageOf(10, 0, 10, 25, model.StatusDraft), nil)

	require.NoError(t, l.Mount(ctx))

	snap := l.Snapshot()
	assert.Equal(t, Loaded, snap.State)
	assert.Equal(t, 3, snap.Page.TotalPages)
	assert.Equal(t, int64(25), snap.Page.TotalElements)
	assert.Len(t, snap.Page.Content, 10)
	assert.True(t, snap.Page.First)
	assert.False(t, snap.Page.Last)
	assert.Equal(t, []State{Loading, Loaded}, rec.states)
}

func TestList_FilterChangesResetPage(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	l := NewList(gw)

	gw.On("List", ctx, withPage(0)).Return(pageOf(10, 0, 10, 25, model.StatusDraft), nil).Once()
	gw.On("List", ctx, withPage(2)).Return(pageOf(5, 2, 10, 25, model.StatusDraft), nil).Once()
	require.NoError(t, l.Mount(ctx))
	require.NoError(t, l.GoToPage(ctx, 2))
	assert.Equal(t, 2, l.Snapshot().Params.Page)

	gw.On("List", ctx, mock.MatchedBy(func(p gateway.ListParams) bool {
		return p.Page == 0 && p.Status == model.StatusPublished
	})).Return(pageOf(4, 0, 10, 4, model.StatusPublished), nil).Once()
	require.NoError(t, l.SetStatusFilter(ctx, model.StatusPublished))

	snap := l.Snapshot()
	assert.Equal(t, 0, snap.Params.Page)
	for _, d := range snap.Page.Content {
		assert.Equal(t, model.StatusPublished, d.Status)
	}

	gw.On("List", ctx, mock.MatchedBy(func(p gateway.ListParams) bool {
		return p.Page == 0 && p.Title == "report" && p.Status == model.StatusPublished
	})).Return(pageOf(1, 0, 10, 1, model.StatusPublished), nil).Once()
	require.NoError(t, l.Search(ctx, "  report "))
	assert.Equal(t, "report", l.Snapshot().Params.Title)

	gw.On("List", ctx, mock.MatchedBy(func(p gateway.ListParams) bool {
		return p.Page == 0 && p.Size == 25
	})).Return(pageOf(1, 0, 25, 1, model.StatusPublished), nil).Once()
	require.NoError(t, l.SetPageSize(ctx, 25))

	gw.On("List", ctx, mock.MatchedBy(func(p gateway.ListParams) bool {
		return p.SortBy == "title" && p.SortDirection == "ASC"
	})).Return(pageOf(1, 0, 25, 1, model.StatusPublished), nil).Once()
	require.NoError(t, l.SetSort(ctx, "title", "asc"))

	gw.AssertExpectations(t)
}

func TestList_RejectedChangesDoNotFetch(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	l := NewList(gw)
	gw.On("List", ctx, withPage(0)).Return(pageOf(10, 0, 10, 25, model.StatusDraft), nil).Once()
	require.NoError(t, l.Mount(ctx))

	assert.ErrorIs(t, l.GoToPage(ctx, 3), ErrPageOutOfRange)
	assert.ErrorIs(t, l.GoToPage(ctx, -1), ErrPageOutOfRange)
	assert.ErrorIs(t, l.PrevPage(ctx), ErrPageOutOfRange)
	assert.ErrorIs(t, l.SetPageSize(ctx, 0), ErrInvalidSize)
	assert.ErrorIs(t, l.SetStatusFilter(ctx, "BOGUS"), gateway.ErrValidation)

	snap := l.Snapshot()
	assert.Equal(t, Loaded, snap.State)
	assert.Equal(t, 0, snap.Params.Page)
	gw.AssertNumberOfCalls(t, "List", 1)
}

func TestList_NextPage(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	l := NewList(gw, WithPageSize(10))
	gw.On("List", ctx, withPage(0)).Return(pageOf(10, 0, 10, 25, model.StatusDraft), nil).Once()
	gw.On("List", ctx, withPage(1)).Return(pageOf(10, 1, 10, 25, model.StatusDraft), nil).Once()
	require.NoError(t, l.Mount(ctx))
	require.NoError(t, l.NextPage(ctx))
	assert.Equal(t, 1, l.Snapshot().Page.PageNumber)
}

func TestList_Failure(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	rec := &stateRecorder{}
	l := NewList(gw, OnListChange(rec.record))
	boom := &gateway.ServerError{StatusCode: 500, Message: "boom"}
	gw.On("List", ctx, mock.Anything).Return(nil, boom).Once()

	err := l.Mount(ctx)
	assert.ErrorIs(t, err, gateway.ErrServer)
	snap := l.Snapshot()
	assert.Equal(t, Failed, snap.State)
	assert.Equal(t, boom, snap.Err)
	assert.Equal(t, []State{Loading, Failed}, rec.states)

	gw.On("List", ctx, mock.Anything).Return(pageOf(0, 0, 10, 0, model.StatusDraft), nil).Once()
	require.NoError(t, l.Refresh(ctx))
	snap = l.Snapshot()
	assert.Equal(t, Loaded, snap.State)
	assert.Nil(t, snap.Err)
}

func TestList_LateResponseIsDiscarded(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	l := NewList(gw)

	started := make(chan struct{})
	release := make(chan struct{})
	stale := pageOf(10, 0, 10, 25, model.StatusDraft)
	fresh := pageOf(1, 0, 10, 1, model.StatusDraft)

	gw.On("List", ctx, mock.MatchedBy(func(p gateway.ListParams) bool { return p.Title == "" })).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(stale, nil).Once()
	gw.On("List", ctx, mock.MatchedBy(func(p gateway.ListParams) bool { return p.Title == "x" })).
		Return(fresh, nil).Once()

	firstErr := make(chan error, 1)
	go func() { firstErr <- l.Mount(ctx) }()
	<-started

	require.NoError(t, l.Search(ctx, "x"))
	close(release)

	assert.ErrorIs(t, <-firstErr, ErrSuperseded)
	snap := l.Snapshot()
	assert.Equal(t, Loaded, snap.State)
	assert.Same(t, fresh, snap.Page)
	assert.Equal(t, "x", snap.Params.Title)
}

func TestList_PageBoundsFollowCurrentCriteria(t *testing.T) {
	ctx := context.Background()
	published := func(page int) interface{} {
		return mock.MatchedBy(func(p gateway.ListParams) bool {
			return p.Status == model.StatusPublished && p.Page == page
		})
	}

	t.Run("after a failed filter change", func(t *testing.T) {
		gw := new(gwMocks.MockDocumentGateway)
		l := NewList(gw)
		gw.On("List", ctx, withPage(0)).Return(pageOf(10, 0, 10, 25, model.StatusDraft), nil).Once()
		require.NoError(t, l.Mount(ctx))

		gw.On("List", ctx, published(0)).Return(nil, &gateway.ServerError{StatusCode: 503}).Once()
		require.Error(t, l.SetStatusFilter(ctx, model.StatusPublished))

		// The three-page result belongs to the old filter.
		gw.On("List", ctx, published(4)).Return(pageOf(10, 4, 10, 60, model.StatusPublished), nil).Once()
		require.NoError(t, l.GoToPage(ctx, 4))
		assert.Equal(t, 6, l.Snapshot().Page.TotalPages)

		assert.ErrorIs(t, l.GoToPage(ctx, 6), ErrPageOutOfRange)
		gw.AssertExpectations(t)
	})

	t.Run("while a filter change is loading", func(t *testing.T) {
		gw := new(gwMocks.MockDocumentGateway)
		l := NewList(gw)
		gw.On("List", ctx, withPage(0)).Return(pageOf(10, 0, 10, 25, model.StatusDraft), nil).Once()
		require.NoError(t, l.Mount(ctx))

		started := make(chan struct{})
		release := make(chan struct{})
		gw.On("List", ctx, published(0)).
			Run(func(mock.Arguments) {
				close(started)
				<-release
			}).
			Return(pageOf(10, 0, 10, 60, model.StatusPublished), nil).Once()
		gw.On("List", ctx, published(3)).Return(pageOf(10, 3, 10, 60, model.StatusPublished), nil).Once()

		filterErr := make(chan error, 1)
		go func() { filterErr <- l.SetStatusFilter(ctx, model.StatusPublished) }()
		<-started

		require.NoError(t, l.GoToPage(ctx, 3))
		close(release)

		assert.ErrorIs(t, <-filterErr, ErrSuperseded)
		snap := l.Snapshot()
		assert.Equal(t, 3, snap.Page.PageNumber)
		assert.Equal(t, model.StatusPublished, snap.Params.Status)
		gw.AssertExpectations(t)
	})
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(42).String())
}
