package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fluxio-platform/fluxio/internal/db/models"
	apperrors "github.com/fluxio-platform/fluxio/pkg/errors"
)

// TenantOwned is implemented by every model that carries a tenant_id column.
type TenantOwned interface {
	GetTenantID() uuid.UUID
	SetTenantID(id uuid.UUID)
}

// Scope wraps a gorm handle bound to exactly one tenant for its entire
// lifetime. Every read issued through it has `tenant_id = ?` conjoined to the
// caller's conditions by the Scope itself, every create is stamped with the
// bound tenant id, and every mutation by id verifies ownership before
// touching the row. Construction is the only place a tenant id is injected;
// a Scope must never be reused across requests for different tenants.
type Scope struct {
	db       *gorm.DB
	tenantID uuid.UUID
}

// NewScope creates a gateway bound to one tenant id.
func NewScope(db *gorm.DB, tenantID uuid.UUID) *Scope {
	return &Scope{db: db, tenantID: tenantID}
}

// TenantID returns the bound tenant id.
func (s *Scope) TenantID() uuid.UUID {
	return s.tenantID
}

// scoped returns a query builder with the tenant predicate already applied.
// The predicate is added here, after the caller's conditions are attached by
// gorm as separate AND clauses, so no caller-supplied condition can widen the
// result set beyond the bound tenant.
func (s *Scope) scoped(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Where("tenant_id = ?", s.tenantID)
}

// Find loads all rows of dest's model matching the caller's conditions
// within the bound tenant.
func (s *Scope) Find(ctx context.Context, dest interface{}, conds ...interface{}) error {
	return s.scoped(ctx).Find(dest, conds...).Error
}

// FindOrdered is Find with an ORDER BY clause. The order expression must be
// trusted input (a column list), never a request value.
func (s *Scope) FindOrdered(ctx context.Context, dest interface{}, order string, conds ...interface{}) error {
	return s.scoped(ctx).Order(order).Find(dest, conds...).Error
}

// First loads the first matching row within the bound tenant, ordered by
// primary key. Rows belonging to other tenants are reported as not found.
func (s *Scope) First(ctx context.Context, dest interface{}, conds ...interface{}) error {
	err := s.scoped(ctx).First(dest, conds...).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrRecordNotFound
	}
	return err
}

// Count counts rows of model matching the caller's conditions within the
// bound tenant.
func (s *Scope) Count(ctx context.Context, model interface{}, conds ...interface{}) (int64, error) {
	var count int64
	q := s.scoped(ctx).Model(model)
	if len(conds) > 0 {
		q = q.Where(conds[0], conds[1:]...)
	}
	err := q.Count(&count).Error
	return count, err
}

// Create persists value with TenantID force-set to the bound tenant,
// regardless of any value the caller supplied.
func (s *Scope) Create(ctx context.Context, value TenantOwned) error {
	value.SetTenantID(s.tenantID)
	return s.db.WithContext(ctx).Create(value).Error
}

// UpdatesByID applies updates to the row of model identified by id, but only
// when the row belongs to the bound tenant. A row owned by another tenant is
// indistinguishable from a missing row: both return ErrRecordNotFound.
func (s *Scope) UpdatesByID(ctx context.Context, model TenantOwned, id uuid.UUID, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND tenant_id = ?", id, s.tenantID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrRecordNotFound
	}
	return nil
}

// DeleteByID deletes the row of model identified by id, but only when the
// row belongs to the bound tenant. Cross-tenant targets report not found.
func (s *Scope) DeleteByID(ctx context.Context, model interface{}, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, s.tenantID).
		Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrRecordNotFound
	}
	return nil
}

// Transaction runs fn inside a database transaction with a Scope bound to
// the same tenant. Nesting is allowed; gorm uses savepoints.
func (s *Scope) Transaction(ctx context.Context, fn func(tx *Scope) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Scope{db: tx, tenantID: s.tenantID})
	})
}

// IncrementDailyCounter atomically increments this tenant's display-ID
// counter for the given calendar date ("YYYY-MM-DD") and returns the new
// value, creating the row at 1 on first use. The increment is a single
// UPDATE, so concurrent transactions serialize on the row lock and no two
// callers can observe the same value. A lost insert race falls back to the
// increment path.
func (s *Scope) IncrementDailyCounter(ctx context.Context, date string) (int, error) {
	var value int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ReservationCounter{}).
			Where("tenant_id = ? AND date = ?", s.tenantID, date).
			UpdateColumn("last_number", gorm.Expr("last_number + 1"))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			counter := &models.ReservationCounter{
				TenantID:   s.tenantID,
				Date:       date,
				LastNumber: 1,
			}
			// Savepoint around the insert so a lost create race does not
			// poison the surrounding transaction on postgres.
			createErr := tx.Transaction(func(inner *gorm.DB) error {
				return inner.Create(counter).Error
			})
			if createErr == nil {
				value = 1
				return nil
			}

			// Another request created today's row first; increment it.
			res = tx.Model(&models.ReservationCounter{}).
				Where("tenant_id = ? AND date = ?", s.tenantID, date).
				UpdateColumn("last_number", gorm.Expr("last_number + 1"))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperrors.ErrCounterConflict
			}
		}

		var counter models.ReservationCounter
		if err := tx.Where("tenant_id = ? AND date = ?", s.tenantID, date).First(&counter).Error; err != nil {
			return err
		}
		value = counter.LastNumber
		return nil
	})
	if err != nil {
		return 0, err
	}

	return value, nil
}
