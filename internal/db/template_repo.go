package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"shopnotify/internal/types"
)

// TemplateRepository resolves email templates from the email_templates
// table. Resolution is strictly by (type, is_active); there is deliberately
// no default-template fallback: a missing active template is a configuration
// defect and the caller must abort the send.
type TemplateRepository struct {
	db DBTX
}

// NewTemplateRepository creates a TemplateRepository backed by the given
// database connection (pool or transaction).
func NewTemplateRepository(db DBTX) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// GetActiveByType returns the single active template for the given type.
// Returns an AppError with code config_template_not_found when no active row
// matches. If more than one row is active (a data defect the storefront
// admin UI should prevent), the newest wins.
func (r *TemplateRepository) GetActiveByType(ctx context.Context, tt types.TemplateType) (*types.EmailTemplate, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, template_type, subject, html_content, variables, is_active, created_at
		 FROM email_templates
		 WHERE template_type = $1 AND is_active = TRUE
		 ORDER BY created_at DESC
		 LIMIT 1`,
		string(tt),
	)

	var t types.EmailTemplate
	err := row.Scan(&t.ID, &t.Type, &t.Subject, &t.HTMLContent, &t.Variables, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(
				types.ErrCodeConfigTemplateNotFound,
				fmt.Sprintf("no active template for type %q", tt),
				err,
			)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to resolve template", err)
	}

	return &t, nil
}
