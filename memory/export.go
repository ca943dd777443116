package memory

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/engramhq/engram/entity"
	"github.com/engramhq/engram/errors"
	"github.com/samber/lo"
)

// exportRecord is the flat projection used by both export formats. Embeddings
// and raw metadata are deliberately excluded.
type exportRecord struct {
	ID         string   `json:"id"`
	UserID     string   `json:"userId"`
	AgentID    string   `json:"agentId,omitempty"`
	SessionID  string   `json:"sessionId,omitempty"`
	Content    string   `json:"content"`
	Source     string   `json:"source,omitempty"`
	Importance float64  `json:"importance"`
	Tags       []string `json:"tags"`
	APIKeyName string   `json:"apiKeyName,omitempty"`
	CreatedAt  string   `json:"createdAt"`
}

var exportHeader = []string{
	"id", "userId", "agentId", "sessionId", "content",
	"source", "importance", "tags", "apiKeyName", "createdAt",
}

func (s *service) ExportByUser(ctx context.Context, tenantID string, userID string, format ExportFormat) (string, error) {
	memories, err := s.store.List(ctx, tenantID, ListOptions{UserID: userID})
	if err != nil {
		return "", err
	}

	records := lo.Map(memories, func(m entity.Memory, _ int) exportRecord {
		tags := m.Tags.Data()
		if tags == nil {
			tags = []string{}
		}
		return exportRecord{
			ID:         m.ID,
			UserID:     m.UserID,
			AgentID:    m.AgentID,
			SessionID:  m.SessionID,
			Content:    m.Content,
			Source:     m.Source,
			Importance: m.Importance,
			Tags:       tags,
			APIKeyName: m.APIKeyName,
			CreatedAt:  m.CreatedAt.UTC().Format(time.RFC3339),
		}
	})

	switch format {
	case ExportFormatCSV:
		return marshalCSV(records)
	case ExportFormatJSON, "":
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return "", errors.Wrapf(err, "failed to marshal export")
		}
		return string(data), nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidParams, "unsupported export format %q", format)
	}
}

// marshalCSV quotes per RFC 4180: fields containing a comma, quote, or
// newline are wrapped in double quotes with inner quotes doubled. Tags are
// joined with ";".
func marshalCSV(records []exportRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return "", errors.WithStack(err)
	}
	for _, r := range records {
		row := []string{
			r.ID,
			r.UserID,
			r.AgentID,
			r.SessionID,
			r.Content,
			r.Source,
			strconv.FormatFloat(r.Importance, 'g', -1, 64),
			strings.Join(r.Tags, ";"),
			r.APIKeyName,
			r.CreatedAt,
		}
		if err := w.Write(row); err != nil {
			return "", errors.WithStack(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errors.WithStack(err)
	}

	return buf.String(), nil
}
