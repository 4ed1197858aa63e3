package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/roamly/traveldna/internal/taxonomy"
	"github.com/roamly/traveldna/pkg/models"
)

// POIStore resolves candidate POIs from the local Postgres mirror of the map
// providers' data. Provider category strings are canonicalized on read so
// the rest of the engine only ever sees canonical categories.
type POIStore struct {
	db     Querier
	mapper *taxonomy.Mapper
	logger *logrus.Logger
}

func NewPOIStore(db Querier, mapper *taxonomy.Mapper, logger *logrus.Logger) *POIStore {
	return &POIStore{db: db, mapper: mapper, logger: logger}
}

func (s *POIStore) FindNearby(ctx context.Context, origin models.GeoPoint, radiusKm float64, categories []string) ([]models.CandidatePOI, error) {
	// Haversine distance in meters, computed relative to the query origin.
	query := `
		SELECT id, name, provider_category, category, lat, lng, rating,
			review_count, price_level, popularity_score, open_now,
			2 * 6371000 * asin(sqrt(
				pow(sin(radians(lat - $1) / 2), 2) +
				cos(radians($1)) * cos(radians(lat)) *
				pow(sin(radians(lng - $2) / 2), 2)
			)) AS distance_meters
		FROM pois
		WHERE ($3::text[] IS NULL OR category = ANY($3))
			AND 2 * 6371000 * asin(sqrt(
				pow(sin(radians(lat - $1) / 2), 2) +
				cos(radians($1)) * cos(radians(lat)) *
				pow(sin(radians(lng - $2) / 2), 2)
			)) <= $4
		ORDER BY distance_meters ASC
		LIMIT 200`

	var categoryFilter interface{}
	if len(categories) > 0 {
		categoryFilter = categories
	}

	rows, err := s.db.Query(ctx, query, origin.Lat, origin.Lng, categoryFilter, radiusKm*1000)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearby POIs: %w", err)
	}
	defer rows.Close()

	var pois []models.CandidatePOI
	for rows.Next() {
		poi, err := s.scanPOI(rows, true)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to scan POI row, skipping")
			continue
		}
		pois = append(pois, poi)
	}

	return pois, rows.Err()
}

func (s *POIStore) FindByIDs(ctx context.Context, ids []string) ([]models.CandidatePOI, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, name, provider_category, category, lat, lng, rating,
			review_count, price_level, popularity_score, open_now
		FROM pois
		WHERE id = ANY($1)`

	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query POIs by ids: %w", err)
	}
	defer rows.Close()

	var pois []models.CandidatePOI
	for rows.Next() {
		poi, err := s.scanPOI(rows, false)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to scan POI row, skipping")
			continue
		}
		pois = append(pois, poi)
	}

	return pois, rows.Err()
}

type poiScanner interface {
	Scan(dest ...interface{}) error
}

func (s *POIStore) scanPOI(row poiScanner, withDistance bool) (models.CandidatePOI, error) {
	var poi models.CandidatePOI
	dest := []interface{}{
		&poi.ID,
		&poi.Name,
		&poi.ProviderCategory,
		&poi.Category,
		&poi.Location.Lat,
		&poi.Location.Lng,
		&poi.Rating,
		&poi.ReviewCount,
		&poi.PriceLevel,
		&poi.PopularityScore,
		&poi.OpenNow,
	}
	if withDistance {
		dest = append(dest, &poi.DistanceMeters)
	}

	if err := row.Scan(dest...); err != nil {
		return poi, err
	}

	if poi.Category == "" {
		poi.Category = s.mapper.Canonical(poi.ProviderCategory)
	}

	return poi, nil
}
