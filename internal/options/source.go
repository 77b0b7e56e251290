// Package options wires the external adapters and the TTL cache into the
// option source the dependent-selection machine lists from.
package options

import (
	"context"

	"github.com/syllabus-hq/syllabot/internal/cache"
	"github.com/syllabus-hq/syllabot/internal/flow"
	"github.com/syllabus-hq/syllabot/internal/hubspot"
)

// CRM is the slice of the HubSpot client the source needs.
type CRM interface {
	ListPipelines(ctx context.Context, rt flow.RecordType) ([]hubspot.Pipeline, error)
	SearchRecords(ctx context.Context, rt flow.RecordType, pipelineID, stageID, query string, limit int) ([]flow.Option, error)
}

// Board is the slice of the Monday client the source needs.
type Board interface {
	ListGroups(ctx context.Context, boardID string) ([]flow.Option, error)
}

type Source struct {
	CRM     CRM
	Board   Board
	BoardID string
	Cache   *cache.Options
}

var _ flow.OptionSource = (*Source)(nil)

// Pipelines lists the pipelines for a record type through the cache.
func (s *Source) Pipelines(ctx context.Context, rt flow.RecordType) ([]flow.Option, error) {
	key := cache.Key("pipelines:"+string(rt), "")
	return s.Cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]flow.Option, error) {
		pipelines, err := s.CRM.ListPipelines(ctx, rt)
		if err != nil {
			return nil, err
		}
		opts := make([]flow.Option, 0, len(pipelines))
		for _, p := range pipelines {
			opts = append(opts, flow.Option{Label: p.Label, Value: p.ID})
		}
		return opts, nil
	})
}

// Stages lists the nested stage list of one cached pipeline. A pipeline id
// that no longer appears in a fresh fetch (renamed or deleted upstream)
// yields an empty list, not an error.
func (s *Source) Stages(ctx context.Context, rt flow.RecordType, pipelineID string) ([]flow.Option, error) {
	key := cache.Key("stages:"+string(rt), pipelineID)
	return s.Cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]flow.Option, error) {
		pipelines, err := s.CRM.ListPipelines(ctx, rt)
		if err != nil {
			return nil, err
		}
		for _, p := range pipelines {
			if p.ID != pipelineID {
				continue
			}
			opts := make([]flow.Option, 0, len(p.Stages))
			for _, st := range p.Stages {
				opts = append(opts, flow.Option{Label: st.Label, Value: st.ID})
			}
			return opts, nil
		}
		return []flow.Option{}, nil
	})
}

// SearchRecords is a live scoped search; never cached.
func (s *Source) SearchRecords(ctx context.Context, rt flow.RecordType, pipelineID, stageID, query string) ([]flow.Option, error) {
	return s.CRM.SearchRecords(ctx, rt, pipelineID, stageID, query, flow.MaxOptions)
}

// TaskGroups lists the task board's groups through the cache, filtered by
// the typed search term.
func (s *Source) TaskGroups(ctx context.Context, search string) ([]flow.Option, error) {
	key := cache.Key("groups", s.BoardID)
	opts, err := s.Cache.GetOrFetch(ctx, key, func(ctx context.Context) ([]flow.Option, error) {
		return s.Board.ListGroups(ctx, s.BoardID)
	})
	if err != nil {
		return nil, err
	}
	return flow.Filter(opts, search), nil
}
