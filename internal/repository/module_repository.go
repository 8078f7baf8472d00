package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/studytrack/planner-api/internal/models"
)

// ModuleRepository provides read access to the student's course modules.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository creates a new module repository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// FindByCode looks up a module by code, case-insensitively. Returns nil
// without error when the student has no such module.
func (r *ModuleRepository) FindByCode(ctx context.Context, studentID, code string) (*models.Module, error) {
	const query = `SELECT id, student_id, code, title, created_at
FROM modules WHERE student_id = $1 AND code ILIKE $2 LIMIT 1`
	var module models.Module
	if err := r.db.GetContext(ctx, &module, query, studentID, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find module by code: %w", err)
	}
	return &module, nil
}

// List returns the student's modules ordered by code.
func (r *ModuleRepository) List(ctx context.Context, studentID string) ([]models.Module, error) {
	const query = `SELECT id, student_id, code, title, created_at
FROM modules WHERE student_id = $1 ORDER BY code ASC`
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query, studentID); err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}
