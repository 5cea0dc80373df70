package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"presale-tracker/models"
	"presale-tracker/utils"
)

// ErrNotCSV is returned when the input text has no comma at all.
var ErrNotCSV = errors.New("input is not CSV: no delimiter found")

// EmptyResultError reports that records were parsed but none survived
// filtering. First is the first raw record, for diagnosing header mismatches.
type EmptyResultError struct {
	Total int
	First models.RawRecord
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no pre-sale records after filtering %d rows; first record:\n%s",
		e.Total, dumpRecord(e.First))
}

// PipelineError is a failure during processing that aborted the whole run.
type PipelineError struct {
	Cause any
	First *models.RawRecord
}

func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("pipeline failed: %v", e.Cause)
	if e.First != nil {
		msg += "\nfirst record:\n" + dumpRecord(*e.First)
	}
	return msg
}

// Unwrap exposes the cause when it is an error.
func (e *PipelineError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

func dumpRecord(r models.RawRecord) string {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", r.Fields)
	}
	return string(b)
}

// Pipeline runs one complete ingestion pass: decode, tokenize, normalize,
// aggregate, summarize. It keeps no state between runs.
type Pipeline struct {
	logger     *utils.Logger
	normalizer *Normalizer
	now        func() time.Time
}

// NewPipeline creates a Pipeline.
func NewPipeline(logger *utils.Logger) *Pipeline {
	return &Pipeline{
		logger:     logger,
		normalizer: NewNormalizer(logger),
		now:        time.Now,
	}
}

// RunBytes decodes buf and runs the text through the pipeline.
func (p *Pipeline) RunBytes(buf []byte, source string) (*models.AggregationResult, error) {
	dec := DecodeContent(buf)
	p.logger.Info("[pipeline] Decoded %d bytes from %s as %s", len(buf), source, dec.Encoding)
	return p.RunText(dec.Text, source)
}

// RunText tokenizes text and runs the records through the pipeline. Text
// without any comma yields an empty result and ErrNotCSV.
func (p *Pipeline) RunText(text, source string) (*models.AggregationResult, error) {
	if !strings.Contains(text, ",") {
		return p.emptyResult(source), ErrNotCSV
	}
	return p.RunRecords(ParseCSV(text), source)
}

// RunRecords folds already tokenized records into a result. When records
// were given but none was accepted, the empty result is returned together
// with an *EmptyResultError.
func (p *Pipeline) RunRecords(records []models.RawRecord, source string) (res *models.AggregationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			pe := &PipelineError{Cause: r}
			if len(records) > 0 {
				pe.First = &records[0]
			}
			p.logger.Error("[pipeline] Run on %s aborted: %v", source, r)
			res, err = nil, pe
		}
	}()

	start := p.now()
	rows, stats := p.normalizer.Normalize(records)

	agg := NewAggregator()
	agg.AddAll(rows)

	res = p.emptyResult(source)
	res.Stats = stats
	res.Projects = SummarizeAll(agg.Projects())
	res.Transactions = agg.Transactions()
	SortTransactions(res.Transactions)

	p.logger.Info("[pipeline] Run %s on %s: %d records → %d projects, %d transactions in %s",
		res.RunID, source, len(records), len(res.Projects), len(res.Transactions), p.now().Sub(start).Round(time.Millisecond))

	if len(records) > 0 && len(res.Projects) == 0 {
		p.logger.Warn("[pipeline] No pre-sale records survived filtering (%d rows)", len(records))
		return res, &EmptyResultError{Total: len(records), First: records[0]}
	}
	return res, nil
}

func (p *Pipeline) emptyResult(source string) *models.AggregationResult {
	return &models.AggregationResult{
		RunID:        uuid.NewString(),
		Source:       source,
		GeneratedAt:  p.now(),
		Projects:     []models.ProjectSummary{},
		Transactions: []models.Transaction{},
	}
}
