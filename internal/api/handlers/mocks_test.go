package handlers

import (
	"context"

	"github.com/codeshield-ai/codeshield/internal/domain"
	"github.com/codeshield-ai/codeshield/internal/github"
	"github.com/codeshield-ai/codeshield/internal/pagination"
	"github.com/codeshield-ai/codeshield/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockIngestor struct {
	mock.Mock
}

func (m *MockIngestor) Ingest(ctx context.Context, input service.IngestInput) (*service.IngestResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Store(ctx context.Context, key, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}

type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, input service.AnswerInput) (*service.Answer, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Answer), args.Error(1)
}

type MockComplianceAnalyzer struct {
	mock.Mock
}

func (m *MockComplianceAnalyzer) Analyze(ctx context.Context, input service.AnalyzeInput) (*domain.Verdict, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Verdict), args.Error(1)
}

type MockRepoHost struct {
	mock.Mock
}

func (m *MockRepoHost) Available() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockRepoHost) Tree(ctx context.Context, ref github.RepoRef) ([]github.TreeEntry, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]github.TreeEntry), args.Error(1)
}

func (m *MockRepoHost) FetchFile(ctx context.Context, ref github.RepoRef, path string) ([]byte, error) {
	args := m.Called(ctx, ref, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockChunkBrowser struct {
	mock.Mock
}

func (m *MockChunkBrowser) ListWithCursor(ctx context.Context, source string, cursor *pagination.Cursor, limit int) (*pagination.PageResult[domain.EmbeddedChunk], error) {
	args := m.Called(ctx, source, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[domain.EmbeddedChunk]), args.Error(1)
}

func (m *MockChunkBrowser) GetByID(ctx context.Context, id string) (*domain.EmbeddedChunk, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmbeddedChunk), args.Error(1)
}

func (m *MockChunkBrowser) DeleteBySource(ctx context.Context, source string) (int64, error) {
	args := m.Called(ctx, source)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChunkBrowser) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
