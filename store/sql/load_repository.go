package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-loadrelay/core"
	"github.com/uptrace/bun"
)

// LoadRepository answers the matcher queries in SQL. The statements stay
// within what both postgres and sqlite accept.
type LoadRepository struct {
	db *bun.DB
}

func NewLoadRepository(db *bun.DB) (*LoadRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &LoadRepository{db: db}, nil
}

func (r *LoadRepository) Search(ctx context.Context, query core.LoadQuery) ([]core.Load, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("sqlstore: load repository is not configured")
	}
	query = query.Normalized()

	records := make([]loadRecord, 0)
	q := r.db.NewSelect().Model(&records)
	if query.Origin != "" {
		q = r.wherePlace(q, "origin", query.Origin)
	}
	if query.Destination != "" {
		q = r.wherePlace(q, "destination", query.Destination)
	}
	if query.Weight != nil {
		lo, hi := core.WeightWindow(*query.Weight)
		q = q.Where("?TableAlias.weight BETWEEN ? AND ?", lo, hi)
	}
	if query.Miles != nil {
		lo, hi := core.MilesWindow(*query.Miles)
		q = q.Where("?TableAlias.miles BETWEEN ? AND ?", lo, hi)
	}
	if query.RateMin != nil || query.RateMax != nil {
		q = q.Where("?TableAlias.loadboard_rate IS NOT NULL")
	}
	if query.RateMin != nil {
		q = q.Where("?TableAlias.loadboard_rate >= ?", *query.RateMin)
	}
	if query.RateMax != nil {
		q = q.Where("?TableAlias.loadboard_rate <= ?", *query.RateMax)
	}

	err := q.
		OrderExpr("?TableAlias.pickup_datetime ASC NULLS LAST").
		OrderExpr("?TableAlias.loadboard_rate DESC NULLS LAST").
		OrderExpr("?TableAlias.load_id ASC").
		Limit(query.Limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainLoads(records), nil
}

func (r *LoadRepository) ClosestByWeight(ctx context.Context, target float64, limit int) ([]core.Load, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("sqlstore: load repository is not configured")
	}
	if limit <= 0 {
		limit = core.DefaultClosestLimit
	}
	records := make([]loadRecord, 0)
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.weight IS NOT NULL").
		OrderExpr("ABS(?TableAlias.weight - ?) ASC", target).
		OrderExpr("?TableAlias.load_id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainLoads(records), nil
}

func (r *LoadRepository) Recent(ctx context.Context, limit int) ([]core.Load, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("sqlstore: load repository is not configured")
	}
	if limit <= 0 {
		limit = core.DefaultRecentLimit
	}
	records := make([]loadRecord, 0)
	err := r.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.pickup_datetime DESC NULLS LAST").
		OrderExpr("?TableAlias.load_id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toDomainLoads(records), nil
}

// Insert adds loads to the board. It is used by seeding and tests; the relay
// itself never writes loads.
func (r *LoadRepository) Insert(ctx context.Context, loads ...core.Load) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("sqlstore: load repository is not configured")
	}
	if len(loads) == 0 {
		return nil
	}
	records := make([]loadRecord, 0, len(loads))
	for _, load := range loads {
		if strings.TrimSpace(load.LoadID) == "" {
			return fmt.Errorf("sqlstore: load_id is required")
		}
		records = append(records, fromDomainLoad(load))
	}
	_, err := r.db.NewInsert().Model(&records).Exec(ctx)
	return err
}

// wherePlace matches a folded column against the folded query by prefix.
// Folding happens in Go for the query and in the database for the column.
func (r *LoadRepository) wherePlace(q *bun.SelectQuery, column string, value string) *bun.SelectQuery {
	folded := core.FoldPlace(value)
	return q.Where(placeExpr(r.db)+" LIKE ? ESCAPE '!'", bun.Ident(column), escapeLike(folded)+"%")
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return replacer.Replace(value)
}

func toDomainLoads(records []loadRecord) []core.Load {
	out := make([]core.Load, 0, len(records))
	for _, record := range records {
		out = append(out, toDomainLoad(record))
	}
	return out
}

func toDomainLoad(record loadRecord) core.Load {
	return core.Load{
		LoadID:        record.LoadID,
		Origin:        record.Origin,
		Destination:   record.Destination,
		PickupAt:      utcTime(record.PickupAt),
		DeliveryAt:    utcTime(record.DeliveryAt),
		EquipmentType: record.EquipmentType,
		Rate:          record.Rate,
		Weight:        record.Weight,
		CommodityType: record.CommodityType,
		Pieces:        record.Pieces,
		Miles:         record.Miles,
		Dimensions:    record.Dimensions,
		Notes:         record.Notes,
	}
}

func fromDomainLoad(load core.Load) loadRecord {
	return loadRecord{
		LoadID:        strings.TrimSpace(load.LoadID),
		Origin:        load.Origin,
		Destination:   load.Destination,
		PickupAt:      utcTime(load.PickupAt),
		DeliveryAt:    utcTime(load.DeliveryAt),
		EquipmentType: load.EquipmentType,
		Rate:          load.Rate,
		Weight:        load.Weight,
		CommodityType: load.CommodityType,
		Pieces:        load.Pieces,
		Miles:         load.Miles,
		Dimensions:    load.Dimensions,
		Notes:         load.Notes,
	}
}
