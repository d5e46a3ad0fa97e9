package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"docportal/internal/gateway"
	"docportal/internal/model"
)

var (
	ErrUploadInProgress = errors.New("an upload is already in progress")
	ErrNotLoaded        = errors.New("no document loaded")
)

// DetailSnapshot is a consistent copy of the detail state.
type DetailSnapshot struct {
	State     State
	Document  *model.Document
	Versions  []model.DocumentVersion
	Uploading bool
	// Err is the document failure that fails the whole view.
	Err error
	// VersionsErr is shown alongside a loaded document.
	VersionsErr error
}

type DetailOption func(*Detail)

func OnDetailChange(fn func(DetailSnapshot)) DetailOption {
	return func(d *Detail) { d.onChange = fn }
}

func WithDetailLogger(log zerolog.Logger) DetailOption {
	return func(d *Detail) { d.log = log }
}

// Detail shows one document with its version history and coordinates
// uploads and downloads.
type Detail struct {
	gw       gateway.DocumentGateway
	saver    FileSaver
	log      zerolog.Logger
	onChange func(DetailSnapshot)

	mu          sync.Mutex
	id          int64
	state       State
	doc         *model.Document
	versions    []model.DocumentVersion
	err         error
	versionsErr error
	uploading   bool
}

func NewDetail(gw gateway.DocumentGateway, saver FileSaver, opts ...DetailOption) *Detail {
	d := &Detail{gw: gw, saver: saver, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load fetches the document and its versions concurrently. Only a document
// failure is returned; a version failure is kept in VersionsErr.
func (d *Detail) Load(ctx context.Context, id int64) error {
	d.mu.Lock()
	d.id = id
	d.state = Loading
	snap := d.snapshotLocked()
	d.mu.Unlock()
	d.notify(snap)

	var (
		doc         *model.Document
		versions    []model.DocumentVersion
		versionsErr error
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		doc, err = d.gw.Get(ctx, id)
		return err
	})
	g.Go(func() error {
		versions, versionsErr = d.gw.ListVersions(ctx, id)
		return nil
	})
	err := g.Wait()

	d.mu.Lock()
	if err != nil {
		d.state = Failed
		d.err = err
		d.doc = nil
		d.versions = nil
		d.versionsErr = nil
	} else {
		d.state = Loaded
		d.err = nil
		d.doc = doc
		d.versions = versions
		d.versionsErr = versionsErr
	}
	snap = d.snapshotLocked()
	d.mu.Unlock()
	d.notify(snap)

	if err != nil {
		d.log.Warn().Err(err).Int64("document_id", id).Msg("document_load_failed")
		return err
	}
	if versionsErr != nil {
		d.log.Warn().Err(versionsErr).Int64("document_id", id).Msg("versions_load_failed")
	}
	return nil
}

// Refresh loads the current document again.
func (d *Detail) Refresh(ctx context.Context) error {
	d.mu.Lock()
	id := d.id
	d.mu.Unlock()
	if id == 0 {
		return ErrNotLoaded
	}
	return d.Load(ctx, id)
}

// Upload appends r as a new version. Only one upload runs at a time. On
// success both the document and the version list are fetched again.
func (d *Detail) Upload(ctx context.Context, fileName string, r io.Reader) (*model.DocumentVersion, error) {
	d.mu.Lock()
	if d.uploading {
		d.mu.Unlock()
		return nil, ErrUploadInProgress
	}
	if d.doc == nil {
		d.mu.Unlock()
		return nil, ErrNotLoaded
	}
	id := d.doc.ID
	d.uploading = true
	snap := d.snapshotLocked()
	d.mu.Unlock()
	d.notify(snap)

	defer func() {
		d.mu.Lock()
		d.uploading = false
		snap := d.snapshotLocked()
		d.mu.Unlock()
		d.notify(snap)
	}()

	v, err := d.gw.UploadVersion(ctx, id, fileName, r)
	if err != nil {
		d.log.Warn().Err(err).Int64("document_id", id).Msg("upload_failed")
		return nil, err
	}
	d.log.Info().Int64("document_id", id).Int("version", v.VersionNumber).Msg("version_uploaded")

	if err := d.Load(ctx, id); err != nil {
		return v, fmt.Errorf("reload after upload: %w", err)
	}
	return v, nil
}

// Download saves the payload of v under its original file name and returns
// the saved path.
func (d *Detail) Download(ctx context.Context, v model.DocumentVersion) (string, error) {
	dl, err := d.gw.DownloadVersion(ctx, v.ID)
	if err != nil {
		return "", err
	}
	defer dl.Body.Close()

	name := v.FileName
	if name == "" {
		name = dl.FileName
	}
	path, err := d.saver.Save(name, dl.Body)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	d.log.Info().Int64("version_id", v.ID).Str("path", path).Msg("version_downloaded")
	return path, nil
}

// Version finds a loaded version by its number.
func (d *Detail) Version(number int) (model.DocumentVersion, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range d.versions {
		if v.VersionNumber == number {
			return v, true
		}
	}
	return model.DocumentVersion{}, false
}

func (d *Detail) Snapshot() DetailSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *Detail) snapshotLocked() DetailSnapshot {
	s := DetailSnapshot{
		State:       d.state,
		Document:    d.doc,
		Uploading:   d.uploading,
		Err:         d.err,
		VersionsErr: d.versionsErr,
	}
	if d.versions != nil {
		s.Versions = append([]model.DocumentVersion(nil), d.versions...)
	}
	return s
}

func (d *Detail) notify(s DetailSnapshot) {
	if d.onChange != nil {
		d.onChange(s)
	}
}
