package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"court-admin/internal/shared/model"
)

// ============================================================================
// AuditStore
// ============================================================================

func (s *Store) AppendAuditLog(ctx context.Context, entry *model.AuditLog) error {
	id, err := s.nextID(ctx, ColAuditLogs)
	if err != nil {
		return err
	}
	entry.ID = id
	return insertOne(ctx, s.col(ColAuditLogs), entry)
}

func (s *Store) QueryAuditLogs(ctx context.Context, q model.AuditQuery) ([]*model.AuditLog, int, error) {
	q.Normalize()

	filter := bson.D{}
	if q.Action != "" {
		filter = append(filter, bson.E{Key: "action", Value: string(q.Action)})
	}
	if q.UserID != nil {
		filter = append(filter, bson.E{Key: "user_id", Value: *q.UserID})
	}
	if q.UsernameLike != "" {
		filter = append(filter, bson.E{Key: "username_input",
			Value: bson.D{{Key: "$regex", Value: regexEscape(q.UsernameLike)}}})
	}
	created := bson.D{}
	if q.From != nil {
		created = append(created, bson.E{Key: "$gte", Value: *q.From})
	}
	if q.To != nil {
		created = append(created, bson.E{Key: "$lte", Value: *q.To})
	}
	if len(created) > 0 {
		filter = append(filter, bson.E{Key: "created_at", Value: created})
	}

	total, err := s.col(ColAuditLogs).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((q.Page - 1) * q.PerPage)).
		SetLimit(int64(q.PerPage))
	entries, err := findMany[model.AuditLog](ctx, s.col(ColAuditLogs), filter, opts)
	if err != nil {
		return nil, 0, err
	}
	if entries == nil {
		entries = []*model.AuditLog{}
	}
	return entries, int(total), nil
}

// regexEscape 转义用户输入中的正则元字符，保持纯子串匹配语义
func regexEscape(s string) string {
	special := `\.+*?()|[]{}^$`
	out := make([]rune, 0, len(s))
	for _, r := range s {
		for _, sp := range special {
			if r == sp {
				out = append(out, '\\')
				break
			}
		}
		out = append(out, r)
	}
	return string(out)
}
