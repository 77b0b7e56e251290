package flow

import (
	"context"
	"strings"
	"time"
)

// Field identifies which dependent selector an option-list request is for.
type Field string

const (
	FieldRecordType Field = "record_type"
	FieldPipeline   Field = "pipeline"
	FieldStage      Field = "stage"
	FieldRecord     Field = "record"
)

// Option is one selectable (label, value) pair. Value is always a stable
// external id; label is human-readable and capped for the transport.
type Option struct {
	Label string
	Value string
}

// Placeholder values are prefixed so handlers can tell a pseudo-option from
// a real external id and drop the selection instead of persisting it.
const placeholderPrefix = "noop:"

var (
	PlaceholderNeedRecordType = Option{Label: "Select a record type first", Value: placeholderPrefix + "need_record_type"}
	PlaceholderNeedPipeline   = Option{Label: "Select a pipeline first", Value: placeholderPrefix + "need_pipeline"}
	PlaceholderNeedStage      = Option{Label: "Select a stage first", Value: placeholderPrefix + "need_stage"}
	PlaceholderNoMatches      = Option{Label: "No matches", Value: placeholderPrefix + "no_matches"}
	PlaceholderSearchTimeout  = Option{Label: "Search timed out, type again to retry", Value: placeholderPrefix + "search_timeout"}
	PlaceholderLoadFailed     = Option{Label: "Could not load options, try again", Value: placeholderPrefix + "load_failed"}
)

// IsPlaceholder reports whether a selected value is a pseudo-option rather
// than a real external id.
func IsPlaceholder(value string) bool {
	return strings.HasPrefix(value, placeholderPrefix)
}

const (
	// MaxOptions is the transport's cap on options per response.
	MaxOptions = 100
	// MaxLabelLen is the transport's cap on a plain-text option label.
	MaxLabelLen = 75

	// searchTimeout leaves margin under the transport's ~3 s response
	// deadline for serializing and transmitting the reply.
	searchTimeout = 2500 * time.Millisecond
)

// OptionSource is the adapter surface the state machine lists options from.
// Pipelines and Stages are expected to be cheap (read-through cached);
// SearchRecords is a live search and is never cached.
type OptionSource interface {
	Pipelines(ctx context.Context, rt RecordType) ([]Option, error)
	Stages(ctx context.Context, rt RecordType, pipelineID string) ([]Option, error)
	SearchRecords(ctx context.Context, rt RecordType, pipelineID, stageID, query string) ([]Option, error)
}

// Options computes the option list to serve for one field given the
// currently persisted state. Expected absences (no parent chosen yet, no
// matches, stale parent) come back as placeholder or empty lists; only
// adapter failures surface as errors.
func Options(ctx context.Context, src OptionSource, field Field, s State, search string) ([]Option, error) {
	switch field {
	case FieldRecordType:
		return Filter(RecordTypeOptions(), search), nil
	case FieldPipeline:
		if s.RecordType == "" {
			return []Option{PlaceholderNeedRecordType}, nil
		}
		opts, err := src.Pipelines(ctx, s.RecordType)
		if err != nil {
			return nil, err
		}
		return filterOrNoMatch(opts, search), nil
	case FieldStage:
		if s.RecordType == "" {
			return []Option{PlaceholderNeedRecordType}, nil
		}
		if s.PipelineID == "" {
			return []Option{PlaceholderNeedPipeline}, nil
		}
		opts, err := src.Stages(ctx, s.RecordType, s.PipelineID)
		if err != nil {
			return nil, err
		}
		return filterOrNoMatch(opts, search), nil
	case FieldRecord:
		if s.PipelineID == "" {
			return []Option{PlaceholderNeedPipeline}, nil
		}
		if s.StageID == "" {
			return []Option{PlaceholderNeedStage}, nil
		}
		return searchRecords(ctx, src, s, search)
	}
	return []Option{PlaceholderNoMatches}, nil
}

// RecordTypeOptions is the small static root enumeration.
func RecordTypeOptions() []Option {
	return []Option{
		{Label: "Ticket", Value: string(RecordTicket)},
		{Label: "Deal", Value: string(RecordDeal)},
	}
}

// searchRecords races the live adapter search against a timeout so a slow
// upstream reports a distinguishable sentinel instead of letting the
// transport treat the hung request as a failure.
func searchRecords(ctx context.Context, src OptionSource, s State, search string) ([]Option, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	type result struct {
		opts []Option
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		opts, err := src.SearchRecords(ctx, s.RecordType, s.PipelineID, s.StageID, search)
		ch <- result{opts: opts, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			if ctx.Err() != nil {
				return []Option{PlaceholderSearchTimeout}, nil
			}
			return nil, res.err
		}
		if len(res.opts) == 0 {
			return []Option{PlaceholderNoMatches}, nil
		}
		return Cap(res.opts), nil
	case <-ctx.Done():
		return []Option{PlaceholderSearchTimeout}, nil
	}
}

// Filter keeps options whose label contains the search term
// (case-insensitive), preserving the adapter's order, capped at MaxOptions.
func Filter(opts []Option, search string) []Option {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return Cap(opts)
	}
	out := make([]Option, 0, len(opts))
	for _, opt := range opts {
		if strings.Contains(strings.ToLower(opt.Label), search) {
			out = append(out, opt)
		}
		if len(out) == MaxOptions {
			break
		}
	}
	return out
}

func filterOrNoMatch(opts []Option, search string) []Option {
	filtered := Filter(opts, search)
	if len(filtered) == 0 {
		return []Option{PlaceholderNoMatches}
	}
	return filtered
}

// Cap truncates the list to MaxOptions and each label to MaxLabelLen.
func Cap(opts []Option) []Option {
	if len(opts) > MaxOptions {
		opts = opts[:MaxOptions]
	}
	out := make([]Option, len(opts))
	for i, opt := range opts {
		if len(opt.Label) > MaxLabelLen {
			opt.Label = opt.Label[:MaxLabelLen]
		}
		out[i] = opt
	}
	return out
}
