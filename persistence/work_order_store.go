package persistence

import (
	"coilflow/common"
	"coilflow/domain"
	"coilflow/event"
	"context"
	"errors"

	"github.com/fundwit/go-commons/types"
	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	"github.com/mattn/go-sqlite3"
	otgorm "github.com/smacker/opentracing-gorm"
)

const mysqlDuplicateEntry = 1062

// GormStore keeps work orders, their coil usages and audit events in one relational database.
type GormStore struct {
	ds *DataSourceManager
}

func NewGormStore(ds *DataSourceManager) *GormStore {
	return &GormStore{ds: ds}
}

func (s *GormStore) CreateWorkOrder(ctx context.Context, wo *domain.WorkOrder) error {
	if wo.Version == 0 {
		wo.Version = 1
	}
	if err := domain.CheckInvariants(wo, nil); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(wo).Error
	})
}

func (s *GormStore) LoadWorkOrder(ctx context.Context, id types.ID) (*domain.Aggregate, error) {
	agg := &domain.Aggregate{}
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&agg.WorkOrder).Error; err != nil {
			return err
		}
		return tx.Where("work_order_id = ?", id).Order("sequence ASC").Find(&agg.Usages).Error
	})
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// CommitChange writes a change only if the stored version still equals the version it was decided on.
func (s *GormStore) CommitChange(ctx context.Context, c *domain.Change) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		wo := c.WorkOrder
		query := tx.Model(&domain.WorkOrder{}).Where("id = ? AND version = ?", wo.ID, c.ExpectedVersion).
			Updates(workOrderColumns(&wo))
		if err := query.Error; err != nil {
			return err
		}
		if query.RowsAffected != 1 {
			return domain.ErrConcurrencyConflict
		}

		if c.Closed != nil {
			query := tx.Model(&domain.CoilUsage{}).Where("id = ? AND ended_at IS NULL", c.Closed.ID).
				Updates(map[string]interface{}{"ended_at": c.Closed.EndedAt, "end_weight": c.Closed.EndWeight, "to_location": c.Closed.ToLocation})
			if err := query.Error; err != nil {
				return err
			}
			if query.RowsAffected != 1 {
				return domain.ErrUsageAlreadyClosed
			}
		}

		if c.Opened != nil {
			opened := *c.Opened
			if err := tx.Create(&opened).Error; err != nil {
				return conflictOnDuplicate(err)
			}
		}

		ev := c.Event
		return conflictOnDuplicate(event.PersistCreateFunc(&ev, tx))
	})
}

func (s *GormStore) QueryEvents(ctx context.Context, id types.ID) ([]event.AuditEvent, error) {
	var events []event.AuditEvent
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var err error
		events, err = event.QueryEvents(tx, id)
		return err
	})
	return events, err
}

// PageWorkOrders lists work orders by ascending id, starting after the given one.
func (s *GormStore) PageWorkOrders(ctx context.Context, afterID types.ID, limit int) ([]domain.WorkOrder, error) {
	var page []domain.WorkOrder
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		return tx.Where("id > ?", afterID).Order("id ASC").Limit(limit).Find(&page).Error
	})
	return page, err
}

func (s *GormStore) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := otgorm.SetSpanToGorm(ctx, s.ds.GormDB()).BeginTx(ctx, nil)
	if tx.Error != nil {
		return translate(ctx, tx.Error)
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return translate(ctx, err)
	}
	if err := tx.Commit().Error; err != nil {
		return translate(ctx, err)
	}
	return nil
}

func translate(ctx context.Context, err error) error {
	var bizErr common.BizError
	if errors.As(err, &bizErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.Timeout(ctxErr)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.Timeout(err)
	}
	return err
}

// conflictOnDuplicate reports a clashing usage or event key as a lost race, the caller reloads and retries.
func conflictOnDuplicate(err error) error {
	if isDuplicateKey(err) {
		return domain.ErrConcurrencyConflict
	}
	return err
}

func isDuplicateKey(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}

func workOrderColumns(wo *domain.WorkOrder) map[string]interface{} {
	return map[string]interface{}{
		"status":            wo.Status,
		"scheduled_start":   wo.ScheduledStart,
		"scheduled_end":     wo.ScheduledEnd,
		"estimated_minutes": wo.EstimatedMinutes,
		"actual_start":      wo.ActualStart,
		"actual_end":        wo.ActualEnd,
		"coil_inventory_id": wo.Coil.InventoryID,
		"coil_tag_number":   wo.Coil.TagNumber,
		"coil_item_id":      wo.Coil.ItemID,
		"coil_description":  wo.Coil.Description,
		"coil_weight":       wo.Coil.Weight,
		"coil_location":     wo.Coil.Location,
		"coil_snapshot_at":  wo.Coil.SnapshotAt,
		"active_usage_id":   wo.ActiveUsageID,
		"version":           wo.Version,
		"last_updated_by":   wo.LastUpdatedBy,
		"last_updated_at":   wo.LastUpdatedAt,
	}
}
