// Package mongostore 实现基于 MongoDB 的 PersistentStore
//
// 使用 mongo-go-driver v2，通过 bson tag 实现 model 结构体的序列化/反序列化。
// SQL 侧的自增主键在这里用 counters 集合的原子 $inc 模拟，
// 保证两种后端对外的 ID 语义一致。
package mongostore

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"court-admin/internal/shared/storage"
)

// Collection 名称常量
const (
	ColUsers      = "users"
	ColAuditLogs  = "audit_logs"
	ColFacilities = "facilities"
	ColCourts     = "courts"
	ColBanners    = "banners"
	ColCounters   = "counters"
)

// Store 实现 storage.PersistentStore 接口的 MongoDB 驱动
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ storage.PersistentStore = (*Store)(nil)

// NewStore 创建 MongoDB 存储实例
//
// uri: MongoDB 连接 URI，如 "mongodb://localhost:27017"
// dbName: 数据库名称，如 "court_admin"
func NewStore(uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore: connect failed: %w", err)
	}

	// 验证连接
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongostore: ping failed: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, db: db}

	// 创建索引
	if err := s.ensureIndexes(ctx); err != nil {
		log.Printf("WARNING: mongostore: ensure indexes failed: %v", err)
	}

	return s, nil
}

// Close 断开 MongoDB 连接
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) col(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// nextID 从 counters 集合原子递增并返回序列号
func (s *Store) nextID(ctx context.Context, seq string) (int64, error) {
	var doc struct {
		Value int64 `bson:"value"`
	}
	err := s.col(ColCounters).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: seq}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "value", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, wrapError(err)
	}
	return doc.Value, nil
}

// ensureIndexes 统一管理各集合的索引
func (s *Store) ensureIndexes(ctx context.Context) error {
	userIdx := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "username", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
		{
			Keys: bson.D{{Key: "student_id", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "student_id", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}
	if _, err := s.col(ColUsers).Indexes().CreateMany(ctx, userIdx); err != nil {
		return err
	}

	auditIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "action", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := s.col(ColAuditLogs).Indexes().CreateMany(ctx, auditIdx); err != nil {
		return err
	}

	if _, err := s.col(ColCourts).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "facility_id", Value: 1}},
	}); err != nil {
		return err
	}

	return nil
}
