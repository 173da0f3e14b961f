package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"court-admin/internal/shared/model"
)

// ============================================================================
// FacilityStore
// ============================================================================

func (s *Store) ListFacilities(ctx context.Context) ([]*model.Facility, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findMany[model.Facility](ctx, s.col(ColFacilities), bson.D{}, opts)
}

func (s *Store) ListCourtsByFacility(ctx context.Context, facilityID int64) ([]*model.Court, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return findMany[model.Court](ctx, s.col(ColCourts),
		bson.D{{Key: "facility_id", Value: facilityID}}, opts)
}

func (s *Store) CreateBanner(ctx context.Context, banner *model.Banner) error {
	id, err := s.nextID(ctx, ColBanners)
	if err != nil {
		return err
	}
	banner.ID = id
	return insertOne(ctx, s.col(ColBanners), banner)
}

func (s *Store) GetBanner(ctx context.Context, id int64) (*model.Banner, error) {
	return findOne[model.Banner](ctx, s.col(ColBanners), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListBanners(ctx context.Context, activeOnly bool) ([]*model.Banner, error) {
	filter := bson.D{}
	if activeOnly {
		filter = append(filter, bson.E{Key: "active", Value: true})
	}
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})
	return findMany[model.Banner](ctx, s.col(ColBanners), filter, opts)
}

func (s *Store) UpdateBanner(ctx context.Context, banner *model.Banner) error {
	return updateFields(ctx, s.col(ColBanners), banner.ID, bson.D{
		{Key: "title", Value: banner.Title},
		{Key: "image_key", Value: banner.ImageKey},
		{Key: "link_url", Value: banner.LinkURL},
		{Key: "position", Value: banner.Position},
		{Key: "active", Value: banner.Active},
		{Key: "updated_at", Value: banner.UpdatedAt},
	})
}

func (s *Store) DeleteBanner(ctx context.Context, id int64) error {
	return deleteByID(ctx, s.col(ColBanners), id)
}
