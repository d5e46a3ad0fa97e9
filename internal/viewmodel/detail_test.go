package viewmodel

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docportal/internal/gateway"
	gwMocks "docportal/internal/gateway/mocks"
	"docportal/internal/model"
)

func intPtr(v int) *int { return &v }

func TestDetail_Load(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	d := NewDetail(gw, FileSaver{Dir: t.TempDir()})

	gw.On("Get", ctx, int64(5)).Return(&model.Document{ID: 5, Title: "Runbook", CurrentVersion: intPtr(2)}, nil)
	gw.On("ListVersions", ctx, int64(5)).Return([]model.DocumentVersion{
		{ID: 1, VersionNumber: 1}, {ID: 2, VersionNumber: 2},
	}, nil)

	require.NoError(t, d.Load(ctx, 5))
	snap := d.Snapshot()
	assert.Equal(t, Loaded, snap.State)
	assert.Equal(t, "Runbook", snap.Document.Title)
	assert.Len(t, snap.Versions, 2)
	assert.NoError(t, snap.VersionsErr)

	v, ok := d.Version(2)
	assert.True(t, ok)
	assert.Equal(t, int64(2), v.ID)
	_, ok = d.Version(9)
	assert.False(t, ok)
}

func TestDetail_LoadToleratesVersionFailure(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	d := NewDetail(gw, FileSaver{})

	gw.On("Get", ctx, int64(5)).Return(&model.Document{ID: 5}, nil)
	gw.On("ListVersions", ctx, int64(5)).Return(nil, gateway.ErrNetwork)

	require.NoError(t, d.Load(ctx, 5))
	snap := d.Snapshot()
	assert.Equal(t, Loaded, snap.State)
	assert.NotNil(t, snap.Document)
	assert.ErrorIs(t, snap.VersionsErr, gateway.ErrNetwork)
	assert.Empty(t, snap.Versions)
}

func TestDetail_LoadDocumentFailureFailsView(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	var states []State
	d := NewDetail(gw, FileSaver{}, OnDetailChange(func(s DetailSnapshot) { states = append(states, s.State) }))

	notFound := &gateway.ServerError{StatusCode: 404, Message: "document not found"}
	gw.On("Get", ctx, int64(9)).Return(nil, notFound)
	gw.On("ListVersions", ctx, int64(9)).Return([]model.DocumentVersion{}, nil)

	err := d.Load(ctx, 9)
	assert.ErrorIs(t, err, gateway.ErrNotFound)
	snap := d.Snapshot()
	assert.Equal(t, Failed, snap.State)
	assert.Nil(t, snap.Document)
	assert.ErrorIs(t, snap.Err, gateway.ErrNotFound)
	assert.Equal(t, []State{Loading, Failed}, states)
}

func TestDetail_UploadRefetches(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	d := NewDetail(gw, FileSaver{})

	gw.On("Get", ctx, int64(5)).Return(&model.Document{ID: 5, CurrentVersion: intPtr(1)}, nil).Once()
	gw.On("ListVersions", ctx, int64(5)).Return([]model.DocumentVersion{{ID: 1, VersionNumber: 1}}, nil).Once()
	require.NoError(t, d.Load(ctx, 5))

	body := strings.NewReader("v2")
	gw.On("UploadVersion", ctx, int64(5), "b.txt", body).
		Return(&model.DocumentVersion{ID: 2, VersionNumber: 2}, nil).Once()
	gw.On("Get", ctx, int64(5)).Return(&model.Document{ID: 5, CurrentVersion: intPtr(2)}, nil).Once()
	gw.On("ListVersions", ctx, int64(5)).Return([]model.DocumentVersion{
		{ID: 1, VersionNumber: 1}, {ID: 2, VersionNumber: 2},
	}, nil).Once()

	v, err := d.Upload(ctx, "b.txt", body)
	require.NoError(t, err)
	assert.Equal(t, 2, v.VersionNumber)

	snap := d.Snapshot()
	assert.False(t, snap.Uploading)
	assert.Equal(t, 2, *snap.Document.CurrentVersion)
	require.Len(t, snap.Versions, 2)
	assert.Equal(t, 2, snap.Versions[1].VersionNumber)
	gw.AssertExpectations(t)
}

func TestDetail_UploadIsExclusive(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	d := NewDetail(gw, FileSaver{})

	_, err := d.Upload(ctx, "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotLoaded)

	gw.On("Get", ctx, int64(5)).Return(&model.Document{ID: 5}, nil)
	gw.On("ListVersions", ctx, int64(5)).Return([]model.DocumentVersion{}, nil)
	require.NoError(t, d.Load(ctx, 5))

	started := make(chan struct{})
	release := make(chan struct{})
	gw.On("UploadVersion", ctx, int64(5), "a.txt", mock.Anything).
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil, errors.New("rejected")).Once()

	done := make(chan error, 1)
	go func() {
		_, err := d.Upload(ctx, "a.txt", strings.NewReader("x"))
		done <- err
	}()
	<-started

	assert.True(t, d.Snapshot().Uploading)
	_, err = d.Upload(ctx, "a.txt", strings.NewReader("y"))
	assert.ErrorIs(t, err, ErrUploadInProgress)

	close(release)
	assert.EqualError(t, <-done, "rejected")
	assert.False(t, d.Snapshot().Uploading)
	gw.AssertNumberOfCalls(t, "UploadVersion", 1)
}

func TestDetail_Download(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	gw := new(gwMocks.MockDocumentGateway)
	d := NewDetail(gw, FileSaver{Dir: dir})

	v := model.DocumentVersion{ID: 7, VersionNumber: 1, FileName: "report.pdf"}
	gw.On("DownloadVersion", ctx, int64(7)).Return(&gateway.Download{
		Body: io.NopCloser(strings.NewReader("first")), ContentType: "application/pdf", FileName: "report.pdf",
	}, nil).Once()
	gw.On("DownloadVersion", ctx, int64(7)).Return(&gateway.Download{
		Body: io.NopCloser(strings.NewReader("second")), ContentType: "application/pdf", FileName: "report.pdf",
	}, nil).Once()

	p1, err := d.Download(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.pdf"), p1)

	p2, err := d.Download(ctx, v)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report (1).pdf"), p2)

	b, _ := os.ReadFile(p1)
	assert.Equal(t, "first", string(b))
	b, _ = os.ReadFile(p2)
	assert.Equal(t, "second", string(b))

	entries, _ := os.ReadDir(dir)
	assert.Len(t, entries, 2, "transient files are released")
}

func TestDetail_DownloadFailure(t *testing.T) {
	ctx := context.Background()
	gw := new(gwMocks.MockDocumentGateway)
	d := NewDetail(gw, FileSaver{Dir: t.TempDir()})
	gw.On("DownloadVersion", ctx, int64(7)).Return(nil, gateway.ErrUnauthorized)

	_, err := d.Download(ctx, model.DocumentVersion{ID: 7, FileName: "x"})
	assert.ErrorIs(t, err, gateway.ErrUnauthorized)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestFileSaver_CleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := FileSaver{Dir: dir}.Save("a.bin", failingReader{})
	assert.Error(t, err)

	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)

	_, err = FileSaver{Dir: dir}.Save("", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestFileSaver_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	p, err := FileSaver{Dir: dir}.Save("../../escape.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.txt"), p)
}

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		0:                 "0 Bytes",
		-5:                "0 Bytes",
		512:               "512 Bytes",
		1024:              "1 KB",
		1536:              "1.5 KB",
		1048576:           "1 MB",
		5 * 1024 * 1024:   "5 MB",
		1073741824:        "1 GB",
		2 * 1099511627776: "2048 GB",
		1234567:           "1.18 MB",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatFileSize(in), "%d", in)
	}
}
