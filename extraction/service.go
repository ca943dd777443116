package extraction

import (
	"context"
	"log/slog"
	"strings"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"github.com/engramhq/engram/graph"
	"github.com/samber/lo"
)

type (
	// Result carries what was persisted plus the raw post-filter extraction
	// for auditability.
	Result struct {
		Entities  []entity.Entity   `json:"entities"`
		Relations []entity.Relation `json:"relations"`
		Raw       Extraction        `json:"raw"`
	}

	Service interface {
		ExtractFromText(ctx context.Context, tenantID string, text string, opts Options) (*Result, error)
		ExtractFromTexts(ctx context.Context, tenantID string, texts []string, opts Options) (*Result, error)
		Preview(ctx context.Context, text string, opts Options) (*Extraction, error)
	}

	service struct {
		provider Provider
		graph    graph.Service
		config   *config.ExtractionConfig
		logger   *slog.Logger
	}
)

var (
	_ Service = (*service)(nil)
)

func NewService(provider Provider, graphService graph.Service, conf *config.ExtractionConfig, logger *slog.Logger) Service {
	if conf == nil {
		conf = config.NewExtractionConfig()
	}
	return &service{
		provider: provider,
		graph:    graphService,
		config:   conf,
		logger:   logger,
	}
}

func (s *service) ExtractFromText(ctx context.Context, tenantID string, text string, opts Options) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "text is required")
	}

	raw, err := s.extract(ctx, text, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Entities:  []entity.Entity{},
		Relations: []entity.Relation{},
		Raw:       *raw,
	}

	if opts.SaveToGraph != nil && !*opts.SaveToGraph {
		return result, nil
	}

	// Persist entities first, building the case-insensitive name→id map the
	// relations resolve against.
	idByName := make(map[string]string, len(raw.Entities))
	for _, re := range raw.Entities {
		re := re
		persisted, err := s.graph.UpsertEntity(ctx, tenantID, graph.EntityInput{
			UserID:     opts.UserID,
			Type:       re.Type,
			Name:       re.Name,
			Properties: re.Properties,
			Confidence: &re.Confidence,
		})
		if err != nil {
			return nil, err
		}
		result.Entities = append(result.Entities, *persisted)
		idByName[strings.ToLower(re.Name)] = persisted.ID
	}

	for _, rr := range raw.Relations {
		rr := rr
		sourceID, okSource := idByName[strings.ToLower(rr.Source)]
		targetID, okTarget := idByName[strings.ToLower(rr.Target)]
		if !okSource || !okTarget {
			// Dangling name references are dropped, not errors; the provider
			// regularly names entities it did not extract.
			s.logger.Debug("dropping relation with unresolved endpoint",
				slog.String("source", rr.Source), slog.String("target", rr.Target))
			continue
		}

		persisted, err := s.graph.CreateRelation(ctx, tenantID, graph.RelationInput{
			UserID:     opts.UserID,
			SourceID:   sourceID,
			TargetID:   targetID,
			Type:       rr.Type,
			Confidence: &rr.Confidence,
		})
		if err != nil {
			return nil, err
		}
		result.Relations = append(result.Relations, *persisted)
	}

	return result, nil
}

// ExtractFromTexts runs the pipeline once per text sequentially and
// accumulates the outputs. Empty input returns empty results without
// touching the provider.
func (s *service) ExtractFromTexts(ctx context.Context, tenantID string, texts []string, opts Options) (*Result, error) {
	combined := &Result{
		Entities:  []entity.Entity{},
		Relations: []entity.Relation{},
		Raw:       Extraction{Entities: []RawEntity{}, Relations: []RawRelation{}},
	}

	for _, text := range texts {
		result, err := s.ExtractFromText(ctx, tenantID, text, opts)
		if err != nil {
			return nil, err
		}
		combined.Entities = append(combined.Entities, result.Entities...)
		combined.Relations = append(combined.Relations, result.Relations...)
		combined.Raw.Entities = append(combined.Raw.Entities, result.Raw.Entities...)
		combined.Raw.Relations = append(combined.Raw.Relations, result.Raw.Relations...)
	}

	return combined, nil
}

// Preview runs the same provider call and confidence filtering as
// ExtractFromText but never persists.
func (s *service) Preview(ctx context.Context, text string, opts Options) (*Extraction, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "text is required")
	}
	return s.extract(ctx, text, opts)
}

func (s *service) extract(ctx context.Context, text string, opts Options) (*Extraction, error) {
	raw, err := s.provider.ExtractEntitiesAndRelations(ctx, text, ProviderOptions{
		EntityTypes:   opts.EntityTypes,
		RelationTypes: opts.RelationTypes,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "extraction provider failed")
	}

	minConfidence := s.config.MinConfidence
	if opts.MinConfidence != nil {
		minConfidence = *opts.MinConfidence
	}

	entities := lo.Filter(raw.Entities, func(e RawEntity, _ int) bool {
		return e.Confidence >= minConfidence
	})

	// Relations must also point at surviving entities to be worth keeping;
	// the final resolution happens at persistence time.
	relations := lo.Filter(raw.Relations, func(r RawRelation, _ int) bool {
		return r.Confidence >= minConfidence
	})

	if entities == nil {
		entities = []RawEntity{}
	}
	if relations == nil {
		relations = []RawRelation{}
	}

	return &Extraction{Entities: entities, Relations: relations}, nil
}
