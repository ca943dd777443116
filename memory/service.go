package memory

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"github.com/engramhq/engram/quota"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type (
	Service interface {
		Create(ctx context.Context, tenantID string, input CreateInput) (*entity.Memory, error)
		Search(ctx context.Context, tenantID string, query string, opts SearchOptions) ([]SearchResult, error)
		List(ctx context.Context, tenantID string, opts ListOptions) ([]entity.Memory, error)
		GetByID(ctx context.Context, tenantID string, id string) (*entity.Memory, error)
		Delete(ctx context.Context, tenantID string, id string) error
		DeleteByUser(ctx context.Context, tenantID string, userID string) (int64, error)
		ExportByUser(ctx context.Context, tenantID string, userID string, format ExportFormat) (string, error)
	}

	service struct {
		store    Store
		embedder Embedder
		gate     quota.Service
		usage    quota.UsageRecorder
		config   *config.MemoryConfig
		logger   *slog.Logger
	}
)

var (
	_ Service = (*service)(nil)
)

// NewService wires the similarity store. usage may be nil when no metered
// billing collaborator is attached.
func NewService(
	store Store,
	embedder Embedder,
	gate quota.Service,
	usage quota.UsageRecorder,
	conf *config.MemoryConfig,
	logger *slog.Logger,
) Service {
	if conf == nil {
		conf = config.NewMemoryConfig()
	}
	return &service{
		store:    store,
		embedder: embedder,
		gate:     gate,
		usage:    usage,
		config:   conf,
		logger:   logger,
	}
}

func (s *service) Create(ctx context.Context, tenantID string, input CreateInput) (*entity.Memory, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, errors.Wrapf(errors.ErrInvalidParams, "content is required")
	}

	decision, err := s.gate.CheckMemoryQuota(ctx, tenantID, 1)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, errors.Wrapf(errors.ErrQuotaExceeded, "%s", decision.Reason)
	}

	embeddings, err := s.embedder.Embed(ctx, input.Content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed content")
	}
	if len(embeddings) == 0 {
		return nil, errors.New("embedding provider returned no vectors")
	}

	importance := 0.5
	if input.Importance != nil {
		importance = *input.Importance
	}
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}

	now := time.Now()
	m := &entity.Memory{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		UserID:     input.UserID,
		AgentID:    input.AgentID,
		SessionID:  input.SessionID,
		Content:    input.Content,
		Embedding:  datatypes.NewJSONType(embeddings[0]),
		Metadata:   datatypes.NewJSONType(input.Metadata),
		Source:     input.Source,
		Importance: importance,
		Tags:       datatypes.NewJSONType(tags),
		APIKeyName: input.APIKeyName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.store.Create(ctx, tenantID, m); err != nil {
		return nil, err
	}

	// Metered tiers report usage events instead of hitting a hard limit.
	// Losing an event is preferable to failing the write.
	if decision.Tier.Unlimited && s.usage != nil {
		if err := s.usage.RecordMemoryUsage(ctx, tenantID, 1); err != nil {
			s.logger.Warn("failed to record memory usage event",
				slog.String("tenant", tenantID), slog.Any("error", err))
		}
	}

	return m, nil
}

func (s *service) Search(ctx context.Context, tenantID string, query string, opts SearchOptions) ([]SearchResult, error) {
	embeddings, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed query")
	}
	if len(embeddings) == 0 {
		return nil, errors.New("embedding provider returned no vectors")
	}
	queryEmbedding := embeddings[0]

	candidates, err := s.store.List(ctx, tenantID, ListOptions{
		UserID:    opts.UserID,
		AgentID:   opts.AgentID,
		SessionID: opts.SessionID,
	})
	if err != nil {
		return nil, err
	}

	threshold := s.config.SearchThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.config.SearchLimit
	}

	results := make([]SearchResult, 0, len(candidates))
	for i := range candidates {
		m := candidates[i]
		if opts.MinImportance != nil && m.Importance < *opts.MinImportance {
			continue
		}

		score, err := CosineSimilarity(queryEmbedding, m.Embedding.Data())
		if err != nil {
			return nil, err
		}
		if threshold != 0 && score < threshold {
			continue
		}
		results = append(results, SearchResult{Memory: &m, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func (s *service) List(ctx context.Context, tenantID string, opts ListOptions) ([]entity.Memory, error) {
	return s.store.List(ctx, tenantID, opts)
}

func (s *service) GetByID(ctx context.Context, tenantID string, id string) (*entity.Memory, error) {
	return s.store.GetByID(ctx, tenantID, id)
}

func (s *service) Delete(ctx context.Context, tenantID string, id string) error {
	return s.store.Delete(ctx, tenantID, id)
}

func (s *service) DeleteByUser(ctx context.Context, tenantID string, userID string) (int64, error) {
	return s.store.DeleteByUser(ctx, tenantID, userID)
}
