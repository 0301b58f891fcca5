package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mdwiz/mdwiz/internal/worker"
)

// TaxonomyBuilder builds one section. *Pipeline implements it.
type TaxonomyBuilder interface {
	BuildTaxonomy(ctx context.Context, req Request) (*Result, error)
}

// TaxonomyJob builds the section for one TSN list.
type TaxonomyJob struct {
	TSNs     []string
	Template Request
	Builder  TaxonomyBuilder
}

// Execute executes the build job
func (j *TaxonomyJob) Execute(ctx context.Context) worker.Result {
	req := j.Template
	req.TSNs = j.TSNs
	result, err := j.Builder.BuildTaxonomy(ctx, req)
	return &JobResult{TSNs: j.TSNs, Result: result, Error: err}
}

// JobResult is the outcome of one TaxonomyJob.
type JobResult struct {
	TSNs   []string
	Result *Result
	Error  error
}

// GetError returns the error from the job result
func (r *JobResult) GetError() error {
	return r.Error
}

// BatchProcessor builds many sections concurrently. The ITIS client's
// limiter is shared, so concurrency bounds in-flight builds, not the
// request rate.
type BatchProcessor struct {
	builder     TaxonomyBuilder
	concurrency int
	template    Request
}

// NewBatchProcessor creates a processor; template supplies every field of
// the request except the TSNs.
func NewBatchProcessor(builder TaxonomyBuilder, concurrency int, template Request) *BatchProcessor {
	return &BatchProcessor{
		builder:     builder,
		concurrency: concurrency,
		template:    template,
	}
}

// ProcessLists builds one section per list. Results are in input order.
func (b *BatchProcessor) ProcessLists(ctx context.Context, lists [][]string) []*JobResult {
	if len(lists) == 0 {
		return []*JobResult{}
	}

	pool := worker.NewPool(ctx, b.concurrency)
	pool.Start()

	for _, tsns := range lists {
		if !pool.Submit(&TaxonomyJob{TSNs: tsns, Template: b.template, Builder: b.builder}) {
			break
		}
	}

	results := pool.Wait()
	jobResults := make([]*JobResult, len(results))
	for i, r := range results {
		jobResults[i] = r.(*JobResult)
	}
	return jobResults
}

// ProcessFile reads TSN lists from a file and builds them concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*JobResult, error) {
	lists, err := ReadTSNListsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read TSN lists: %w", err)
	}
	return b.ProcessLists(ctx, lists), nil
}

// ReadTSNListsFromFile reads one TSN list per line. TSNs are separated by
// commas, semicolons or whitespace; blank lines and # comments are
// skipped, and repeated lines are read once.
func ReadTSNListsFromFile(filePath string) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lists [][]string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		tsns := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		if len(tsns) == 0 {
			continue
		}

		key := strings.Join(tsns, ",")
		if !seen[key] {
			seen[key] = true
			lists = append(lists, tsns)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}
	return lists, nil
}
