package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPageResponse(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		size      int
		total     int64
		wantPages int
		wantFirst bool
		wantLast  bool
	}{
		{name: "first of three", page: 0, size: 10, total: 25, wantPages: 3, wantFirst: true, wantLast: false},
		{name: "middle", page: 1, size: 10, total: 25, wantPages: 3, wantFirst: false, wantLast: false},
		{name: "last partial", page: 2, size: 10, total: 25, wantPages: 3, wantFirst: false, wantLast: true},
		{name: "exact multiple", page: 1, size: 5, total: 10, wantPages: 2, wantFirst: false, wantLast: true},
		{name: "empty", page: 0, size: 10, total: 0, wantPages: 0, wantFirst: true, wantLast: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPageResponse([]int{1}, tt.page, tt.size, tt.total)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantFirst, p.First)
			assert.Equal(t, tt.wantLast, p.Last)
			assert.Equal(t, tt.total, p.TotalElements)
		})
	}
}

func TestNewPageResponse_NilContent(t *testing.T) {
	p := NewPageResponse[Document](nil, 0, 10, 0)
	assert.NotNil(t, p.Content)
	assert.Empty(t, p.Content)
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus(" published ")
	assert.True(t, ok)
	assert.Equal(t, StatusPublished, s)

	_, ok = ParseStatus("deleted")
	assert.False(t, ok)
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"finance", "q3", "draft"}, ParseTags(" finance, q3 ,, draft ,"))
	assert.Empty(t, ParseTags(""))
}

func TestDocumentUpdateRequest_MarshalJSON(t *testing.T) {
	title := "Renamed"
	tests := []struct {
		name string
		req  DocumentUpdateRequest
		want string
	}{
		{"untouched tags are omitted", DocumentUpdateRequest{Title: &title}, `{"title":"Renamed"}`},
		{"empty tags clear", DocumentUpdateRequest{Tags: []string{}}, `{"tags":[]}`},
		{"tags replaced", DocumentUpdateRequest{Tags: []string{"a", "b"}}, `{"tags":["a","b"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.req)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))

			var back DocumentUpdateRequest
			require.NoError(t, json.Unmarshal(b, &back))
			assert.Equal(t, tt.req.Tags, back.Tags)
		})
	}
}
