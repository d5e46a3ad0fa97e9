package model

import "time"

// Package model contains the wire and domain types shared by the API server and the client.
// No business logic here beyond small derivations.

// ApiResponse is the envelope every JSON endpoint responds with.
type ApiResponse[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data"`
	Message   string    `json:"message,omitempty"`
	ErrorCode string    `json:"errorCode,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OK wraps data in a successful envelope.
func OK[T any](data T, message string) ApiResponse[T] {
	return ApiResponse[T]{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// PageResponse is one page of an ordered result set.
// It is derived per fetch and never stored.
type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	PageNumber    int   `json:"pageNumber"`
	PageSize      int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Last          bool  `json:"last"`
	First         bool  `json:"first"`
}

// NewPageResponse derives page counters from the page coordinates and the total.
func NewPageResponse[T any](content []T, page, size int, total int64) PageResponse[T] {
	if content == nil {
		content = make([]T, 0)
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return PageResponse[T]{
		Content:       content,
		PageNumber:    page,
		PageSize:      size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         page == 0,
		Last:          page+1 >= totalPages,
	}
}
