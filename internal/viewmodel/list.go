// Package viewmodel holds the presentation state of the document screens.
// Views read snapshots and call the operations; all I/O goes through the
// document gateway.
package viewmodel

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"docportal/internal/gateway"
	"docportal/internal/model"
)

const DefaultPageSize = 10

var (
	// ErrSuperseded is returned by a fetch whose response arrived after a newer request was issued.
	ErrSuperseded     = errors.New("superseded by a newer request")
	ErrPageOutOfRange = errors.New("page out of range")
	ErrInvalidSize    = errors.New("page size must be positive")
)

type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ListSnapshot is a consistent copy of the list state.
type ListSnapshot struct {
	State  State
	Params gateway.ListParams
	Page   *model.PageResponse[model.Document]
	Err    error
}

type ListOption func(*List)

func WithPageSize(n int) ListOption {
	return func(l *List) {
		if n > 0 {
			l.params.Size = n
		}
	}
}

// WithParams sets the initial criteria. Zero fields keep their defaults.
func WithParams(p gateway.ListParams) ListOption {
	return func(l *List) {
		if p.Page > 0 {
			l.params.Page = p.Page
		}
		if p.Size > 0 {
			l.params.Size = p.Size
		}
		if p.SortBy != "" {
			l.params.SortBy = p.SortBy
		}
		if p.SortDirection != "" {
			l.params.SortDirection = strings.ToUpper(p.SortDirection)
		}
		l.params.Title = strings.TrimSpace(p.Title)
		l.params.Status = p.Status
	}
}

// OnListChange registers a listener invoked after every state transition.
func OnListChange(fn func(ListSnapshot)) ListOption {
	return func(l *List) { l.onChange = fn }
}

func WithListLogger(log zerolog.Logger) ListOption {
	return func(l *List) { l.log = log }
}

// List is the paginated, filterable document list. Every criterion change
// refetches; only the most recently issued request may update the state.
type List struct {
	gw       gateway.DocumentGateway
	log      zerolog.Logger
	onChange func(ListSnapshot)

	mu     sync.Mutex
	params gateway.ListParams
	state  State
	page   *model.PageResponse[model.Document]
	err    error
	seq    uint64

	// pageParams are the criteria page was fetched with.
	pageParams gateway.ListParams
}

func NewList(gw gateway.DocumentGateway, opts ...ListOption) *List {
	l := &List{
		gw:  gw,
		log: zerolog.Nop(),
		params: gateway.ListParams{
			Size:          DefaultPageSize,
			SortBy:        gateway.DefaultSortBy,
			SortDirection: gateway.DefaultSortDirection,
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Mount performs the first fetch.
func (l *List) Mount(ctx context.Context) error {
	return l.update(ctx, func(*gateway.ListParams) error { return nil })
}

func (l *List) Refresh(ctx context.Context) error {
	return l.Mount(ctx)
}

// GoToPage moves the cursor. Pages beyond the last page of the current
// result set are rejected; while that set is unknown any page is tried.
func (l *List) GoToPage(ctx context.Context, page int) error {
	return l.update(ctx, func(p *gateway.ListParams) error {
		if page < 0 {
			return ErrPageOutOfRange
		}
		if total, ok := l.knownTotalPages(*p); ok && page >= total {
			return ErrPageOutOfRange
		}
		p.Page = page
		return nil
	})
}

// knownTotalPages returns the page count of the loaded result set when it
// was fetched with the same criteria as p, ignoring the page index.
func (l *List) knownTotalPages(p gateway.ListParams) (int, bool) {
	if l.page == nil || l.page.TotalPages == 0 {
		return 0, false
	}
	loaded := l.pageParams
	loaded.Page, p.Page = 0, 0
	if loaded != p {
		return 0, false
	}
	return l.page.TotalPages, true
}

func (l *List) NextPage(ctx context.Context) error {
	l.mu.Lock()
	next := l.params.Page + 1
	l.mu.Unlock()
	return l.GoToPage(ctx, next)
}

func (l *List) PrevPage(ctx context.Context) error {
	l.mu.Lock()
	prev := l.params.Page - 1
	l.mu.Unlock()
	return l.GoToPage(ctx, prev)
}

// SetPageSize changes the page size and returns to the first page.
func (l *List) SetPageSize(ctx context.Context, size int) error {
	return l.update(ctx, func(p *gateway.ListParams) error {
		if size < 1 {
			return ErrInvalidSize
		}
		p.Size = size
		p.Page = 0
		return nil
	})
}

// Search filters by title substring and returns to the first page.
func (l *List) Search(ctx context.Context, title string) error {
	return l.update(ctx, func(p *gateway.ListParams) error {
		p.Title = strings.TrimSpace(title)
		p.Page = 0
		return nil
	})
}

// SetStatusFilter filters by status ("" clears it) and returns to the first page.
func (l *List) SetStatusFilter(ctx context.Context, status model.DocumentStatus) error {
	return l.update(ctx, func(p *gateway.ListParams) error {
		if status != "" && !status.Valid() {
			return gateway.ErrValidation
		}
		p.Status = status
		p.Page = 0
		return nil
	})
}

// SetSort changes the ordering and returns to the first page.
func (l *List) SetSort(ctx context.Context, field, direction string) error {
	return l.update(ctx, func(p *gateway.ListParams) error {
		if field != "" {
			p.SortBy = field
		}
		if direction != "" {
			p.SortDirection = strings.ToUpper(direction)
		}
		p.Page = 0
		return nil
	})
}

func (l *List) Snapshot() ListSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *List) snapshotLocked() ListSnapshot {
	return ListSnapshot{State: l.state, Params: l.params, Page: l.page, Err: l.err}
}

// update applies mutate to the criteria and refetches. A rejected mutation
// leaves the state untouched.
func (l *List) update(ctx context.Context, mutate func(*gateway.ListParams) error) error {
	l.mu.Lock()
	next := l.params
	if err := mutate(&next); err != nil {
		l.mu.Unlock()
		return err
	}
	l.params = next
	l.seq++
	seq := l.seq
	l.state = Loading
	l.err = nil
	snap := l.snapshotLocked()
	l.mu.Unlock()
	l.notify(snap)

	page, err := l.gw.List(ctx, next)

	l.mu.Lock()
	if seq != l.seq {
		l.mu.Unlock()
		l.log.Debug().Uint64("seq", seq).Msg("list_response_discarded")
		return ErrSuperseded
	}
	if err != nil {
		l.state = Failed
		l.err = err
	} else {
		l.state = Loaded
		l.page = page
		l.pageParams = next
	}
	snap = l.snapshotLocked()
	l.mu.Unlock()
	l.notify(snap)

	if err != nil {
		l.log.Warn().Err(err).Msg("list_fetch_failed")
	}
	return err
}

func (l *List) notify(s ListSnapshot) {
	if l.onChange != nil {
		l.onChange(s)
	}
}
