package snippets

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduitedeprojet/testrunner/internal/domain/testrun"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/monitoring"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
	"github.com/conduitedeprojet/testrunner/internal/shared/utils"
)

// ErrInvalidSnippet wraps snippet input validation failures
var ErrInvalidSnippet = errors.New("invalid snippet")

// Service validates snippet input and runs saved snippets
type Service struct {
	store          *Store
	runs           *testrun.Manager
	logger         *zap.Logger
	metrics        *monitoring.Metrics
	maxSourceBytes int
}

// NewService creates a snippet service
func NewService(store *Store, runs *testrun.Manager, maxSourceBytes int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSourceBytes <= 0 {
		maxSourceBytes = utils.MaxSourceSize
	}
	return &Service{store: store, runs: runs, logger: logger, maxSourceBytes: maxSourceBytes}
}

// WithMetrics adds metrics tracking to the service
func (s *Service) WithMetrics(metrics *monitoring.Metrics) *Service {
	s.metrics = metrics
	return s
}

// Create validates and stores a snippet
func (s *Service) Create(ctx context.Context, projectID, issueID string, in types.SnippetInput) (*types.Snippet, error) {
	if err := s.validateScope(projectID, issueID); err != nil {
		return nil, s.observe("create", err)
	}
	code, tests, err := s.validateInput(in)
	if err != nil {
		return nil, s.observe("create", err)
	}
	if err := utils.ValidateCreator(in.Creator); err != nil {
		return nil, s.observe("create", fmt.Errorf("%w: %v", ErrInvalidSnippet, err))
	}

	snippet, err := s.store.Create(ctx, projectID, issueID, code, tests, in.Creator)
	if err != nil {
		return nil, s.observe("create", err)
	}
	s.logger.Info("Snippet created",
		zap.String("snippet_id", snippet.ID),
		zap.String("project_id", projectID),
		zap.String("issue_id", issueID),
	)
	s.refreshCount(ctx)
	return snippet, s.observe("create", nil)
}

// List returns the snippets of an issue
func (s *Service) List(ctx context.Context, projectID, issueID string) ([]*types.Snippet, error) {
	if err := s.validateScope(projectID, issueID); err != nil {
		return nil, s.observe("list", err)
	}
	snippets, err := s.store.List(ctx, projectID, issueID)
	return snippets, s.observe("list", err)
}

// Get returns one snippet
func (s *Service) Get(ctx context.Context, projectID, issueID, snippetID string) (*types.Snippet, error) {
	snippet, err := s.store.Get(ctx, projectID, issueID, snippetID)
	return snippet, s.observe("get", err)
}

// Update replaces the code of a snippet
func (s *Service) Update(ctx context.Context, projectID, issueID, snippetID string, in types.SnippetInput) (*types.Snippet, error) {
	code, tests, err := s.validateInput(in)
	if err != nil {
		return nil, s.observe("update", err)
	}
	snippet, err := s.store.Update(ctx, projectID, issueID, snippetID, code, tests)
	return snippet, s.observe("update", err)
}

// Delete removes a snippet
func (s *Service) Delete(ctx context.Context, projectID, issueID, snippetID string) error {
	err := s.store.Delete(ctx, projectID, issueID, snippetID)
	if err == nil {
		s.logger.Info("Snippet deleted", zap.String("snippet_id", snippetID))
		s.refreshCount(ctx)
	}
	return s.observe("delete", err)
}

// Run executes a saved snippet
func (s *Service) Run(ctx context.Context, projectID, issueID, snippetID string) (*types.RunRecord, error) {
	snippet, err := s.store.Get(ctx, projectID, issueID, snippetID)
	if err != nil {
		return nil, s.observe("run", err)
	}
	record, err := s.runs.Run(ctx, testrun.SourceSnippet, sandbox.Request{
		Code:  snippet.ProgramCode,
		Tests: snippet.TestCode,
	})
	return record, s.observe("run", err)
}

func (s *Service) validateScope(projectID, issueID string) error {
	if err := utils.ValidateID(projectID, "projectId", true); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnippet, err)
	}
	if err := utils.ValidateID(issueID, "issueId", true); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSnippet, err)
	}
	return nil
}

func (s *Service) validateInput(in types.SnippetInput) (string, string, error) {
	if in.ProgramCode == nil || in.TestCode == nil {
		return "", "", fmt.Errorf("%w: programCode and testCode are required", ErrInvalidSnippet)
	}
	if err := utils.ValidateSource(*in.ProgramCode, "programCode", s.maxSourceBytes); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidSnippet, err)
	}
	if err := utils.ValidateSource(*in.TestCode, "testCode", s.maxSourceBytes); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidSnippet, err)
	}
	return *in.ProgramCode, *in.TestCode, nil
}

func (s *Service) refreshCount(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if n, err := s.store.Count(ctx); err == nil {
		s.metrics.SetSnippetsStored(n)
	}
}

func (s *Service) observe(op string, err error) error {
	if s.metrics != nil {
		status := "ok"
		switch {
		case errors.Is(err, ErrNotFound):
			status = "not_found"
		case errors.Is(err, ErrInvalidSnippet):
			status = "invalid"
		case err != nil:
			status = "error"
		}
		s.metrics.RecordSnippetOp(op, status)
	}
	return err
}
