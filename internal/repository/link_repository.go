package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/shrinkurl/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

const linkColumns = `id, short_code, target, owner_id, total_clicks, mobile_clicks, tablet_clicks, desktop_clicks, created_at, updated_at`

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	Exists(ctx context.Context, code string) (bool, error)
	GetByShortCode(ctx context.Context, code string) (*models.Link, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Link, error)
	UpdateTarget(ctx context.Context, code, target string) error
	Delete(ctx context.Context, code string) error
	// RecordClick одним UPDATE увеличивает total_clicks и счётчик устройства
	RecordClick(ctx context.Context, code string, device models.Device) (*models.Link, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (short_code, target, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, total_clicks, mobile_clicks, tablet_clicks, desktop_clicks, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query, link.ShortCode, link.Target, link.OwnerID).Scan(
		&link.ID,
		&link.TotalClicks,
		&link.MobileClicks,
		&link.TabletClicks,
		&link.DesktopClicks,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "links_short_code_key") {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return exists, nil
}

func (r *linkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = $1`

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (r *linkRepository) UpdateTarget(ctx context.Context, code, target string) error {
	query := `UPDATE links SET target = $2, updated_at = NOW() WHERE short_code = $1`

	result, err := r.db.Pool.Exec(ctx, query, code, target)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) Delete(ctx context.Context, code string) error {
	query := `DELETE FROM links WHERE short_code = $1`

	result, err := r.db.Pool.Exec(ctx, query, code)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) RecordClick(ctx context.Context, code string, device models.Device) (*models.Link, error) {
	column, err := deviceColumn(device)
	if err != nil {
		return nil, err
	}

	// Инкремент выполняется на стороне БД, конкурентные переходы не теряют обновления
	query := `
		UPDATE links
		SET total_clicks = total_clicks + 1, ` + column + ` = ` + column + ` + 1
		WHERE short_code = $1
		RETURNING ` + linkColumns

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to record click: %w", err)
	}

	return link, nil
}

// deviceColumn имя колонки выбирается только из фиксированного набора
func deviceColumn(device models.Device) (string, error) {
	switch device {
	case models.DeviceMobile:
		return "mobile_clicks", nil
	case models.DeviceTablet:
		return "tablet_clicks", nil
	case models.DeviceDesktop:
		return "desktop_clicks", nil
	default:
		return "", fmt.Errorf("unknown device %q", device)
	}
}

func scanLink(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.Target,
		&link.OwnerID,
		&link.TotalClicks,
		&link.MobileClicks,
		&link.TabletClicks,
		&link.DesktopClicks,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return link, nil
}
