package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/iasflat/internal/model"
)

// Runner converts one cataloged document
type Runner interface {
	Run(ctx context.Context, ref string) (*model.RunSummary, error)
}

// RefJob converts the document behind one catalog reference
type RefJob struct {
	Ref    string
	Runner Runner
}

// Execute executes the job
func (j *RefJob) Execute(ctx context.Context) Result {
	summary, err := j.Runner.Run(ctx, j.Ref)
	return &RefResult{
		Ref:     j.Ref,
		Summary: summary,
		Error:   err,
	}
}

// RefResult is the outcome of one reference
type RefResult struct {
	Ref     string
	Summary *model.RunSummary
	Error   error
}

// GetError returns the error from the run
func (r *RefResult) GetError() error {
	return r.Error
}

// BatchProcessor converts a list of references one document at a time.
// Documents are never processed concurrently.
type BatchProcessor struct {
	runner Runner
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner) *BatchProcessor {
	return &BatchProcessor{runner: runner}
}

// ProcessRefs runs every reference in order. A failed reference does not
// stop the batch; cancellation does.
func (b *BatchProcessor) ProcessRefs(ctx context.Context, refs []string) []*RefResult {
	results := make([]*RefResult, 0, len(refs))
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			results = append(results, &RefResult{Ref: ref, Error: err})
			continue
		}
		job := &RefJob{Ref: ref, Runner: b.runner}
		results = append(results, job.Execute(ctx).(*RefResult))
	}
	return results
}

// ProcessFile reads references from a file and runs them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*RefResult, error) {
	refs, err := ReadRefsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read refs: %w", err)
	}

	return b.ProcessRefs(ctx, refs), nil
}

// ReadRefsFromFile reads file references (one per line). Repeated references
// are kept; the runner decides what a repeat means.
func ReadRefsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var refs []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		refs = append(refs, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return refs, nil
}
