package api

import (
	"context"

	"exportsync/pkg/history"
	"exportsync/pkg/pipeline"
)

type mockRunner struct {
	RunFunc  func(req pipeline.Request) (*pipeline.Result, error)
	RunCalls []pipeline.Request
}

func (m *mockRunner) Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	m.RunCalls = append(m.RunCalls, req)
	return m.RunFunc(req)
}

type mockHistory struct {
	Entries []history.Entry
	Err     error
	Limits  []int
}

func (m *mockHistory) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	m.Limits = append(m.Limits, limit)
	if limit < len(m.Entries) {
		return m.Entries[:limit], m.Err
	}
	return m.Entries, m.Err
}

func (m *mockHistory) Last(ctx context.Context) ([]history.Entry, error) {
	if len(m.Entries) == 0 {
		return nil, m.Err
	}
	return m.Entries[:1], m.Err
}
