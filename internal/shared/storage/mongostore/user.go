package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"court-admin/internal/shared/model"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	id, err := s.nextID(ctx, ColUsers)
	if err != nil {
		return err
	}
	user.ID = id
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserByStudentID(ctx context.Context, studentID string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "student_id", Value: studentID}})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string, roles []model.UserRole) (*model.User, error) {
	if len(roles) == 0 {
		roles = model.AdminRoles
	}
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{
		{Key: "username", Value: username},
		roleFilter("role", toAny(roles)),
	})
}

func (s *Store) ListNationalIDCandidates(ctx context.Context, roles []model.UserRole) ([]*model.User, error) {
	if len(roles) == 0 {
		roles = model.NationalIDRoles
	}
	filter := bson.D{
		{Key: "national_id_hash", Value: bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: nil}}},
		roleFilter("role", toAny(roles)),
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findMany[model.User](ctx, s.col(ColUsers), filter, opts)
}

func (s *Store) UpdateLastLogin(ctx context.Context, id int64, at time.Time, ip string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "last_login_at", Value: at},
		{Key: "last_login_ip", Value: ip},
	})
}

func (s *Store) UpdateUserStatus(ctx context.Context, id int64, status model.UserStatus) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "status", Value: status},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "password_hash", Value: passwordHash},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findMany[model.User](ctx, s.col(ColUsers), bson.D{}, opts)
}

func toAny(roles []model.UserRole) []interface{} {
	out := make([]interface{}, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
