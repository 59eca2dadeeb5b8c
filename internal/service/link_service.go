package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/SergeiKhy/shrinkurl/internal/detector"
	"github.com/SergeiKhy/shrinkurl/internal/generator"
	"github.com/SergeiKhy/shrinkurl/internal/models"
	"github.com/SergeiKhy/shrinkurl/internal/repository"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// Константы сервиса
const (
	DefaultMaxAttempts = 10
	DefaultQRSize      = 256
	minQRSize          = 128
	maxQRSize          = 1024
)

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// LinkService интерфейс сервиса ссылок
type LinkService interface {
	CreateLink(ctx context.Context, owner uuid.UUID, input *models.CreateLinkInput) (string, error)
	Resolve(ctx context.Context, event *models.ClickEvent) (string, error)
	ListLinks(ctx context.Context, owner uuid.UUID) ([]models.Link, error)
	EditLink(ctx context.Context, owner uuid.UUID, code string, input *models.EditLinkInput) error
	DeleteLink(ctx context.Context, owner uuid.UUID, code string) error
	QRCode(ctx context.Context, owner uuid.UUID, code string, size int) ([]byte, error)
}

type LinkServiceConfig struct {
	MaxAttempts int    // Лимит попыток подобрать свободный код
	BaseURL     string // Адрес, на который указывают QR-коды
}

// linkService реализация сервиса ссылок
type linkService struct {
	linkRepo    repository.LinkRepository
	generator   generator.Generator
	maxAttempts int
	baseURL     string
	logger      *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(
	linkRepo repository.LinkRepository,
	gen generator.Generator,
	cfg LinkServiceConfig,
	logger *zap.Logger,
) LinkService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &linkService{
		linkRepo:    linkRepo,
		generator:   gen,
		maxAttempts: cfg.MaxAttempts,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		logger:      logger,
	}
}

// CreateLink создаёт короткую ссылку и возвращает только её код
func (s *linkService) CreateLink(ctx context.Context, owner uuid.UUID, input *models.CreateLinkInput) (string, error) {
	if owner == uuid.Nil {
		return "", ErrAuthRequired
	}

	target := strings.TrimSpace(input.Target)
	if target == "" {
		return "", ErrTargetRequired
	}
	target = NormalizeTarget(target)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}

		exists, err := s.linkRepo.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if exists {
			s.logger.Debug("Short code collision", zap.String("code", code), zap.Int("attempt", attempt))
			continue
		}

		link := &models.Link{
			ShortCode: code,
			Target:    target,
			OwnerID:   owner,
		}

		if err := s.linkRepo.Create(ctx, link); err != nil {
			// Код заняли между проверкой и вставкой - пробуем новый
			if errors.Is(err, repository.ErrCodeExists) {
				s.logger.Debug("Short code taken on insert", zap.String("code", code), zap.Int("attempt", attempt))
				continue
			}
			return "", err
		}

		return code, nil
	}

	s.logger.Error("Short code space exhausted", zap.Int("attempts", s.maxAttempts))
	return "", ErrCodeSpaceExhausted
}

// Resolve засчитывает переход и возвращает адрес для редиректа.
// Поиск и инкремент счётчиков выполняются одним запросом к хранилищу.
func (s *linkService) Resolve(ctx context.Context, event *models.ClickEvent) (string, error) {
	device := detector.Classify(event.UserAgent)

	link, err := s.linkRepo.RecordClick(ctx, event.ShortCode, device)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to resolve %q: %w", event.ShortCode, err)
	}

	s.logger.Debug("Click recorded",
		zap.String("code", link.ShortCode),
		zap.String("device", string(device)),
		zap.String("client_ip", event.IPAddress),
		zap.Int64("total_clicks", link.TotalClicks),
	)

	return NormalizeTarget(link.Target), nil
}

// ListLinks возвращает ссылки владельца; пустой срез - не ошибка
func (s *linkService) ListLinks(ctx context.Context, owner uuid.UUID) ([]models.Link, error) {
	if owner == uuid.Nil {
		return nil, ErrAuthRequired
	}
	return s.linkRepo.ListByOwner(ctx, owner)
}

// EditLink меняет только целевой адрес ссылки
func (s *linkService) EditLink(ctx context.Context, owner uuid.UUID, code string, input *models.EditLinkInput) error {
	target := strings.TrimSpace(input.NewTarget)
	if target == "" {
		return ErrNewTargetRequired
	}

	if _, err := s.ownedLink(ctx, owner, code); err != nil {
		return err
	}

	if err := s.linkRepo.UpdateTarget(ctx, code, NormalizeTarget(target)); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrLinkNotFound
		}
		return err
	}

	return nil
}

// DeleteLink удаляет ссылку вместе со счётчиками
func (s *linkService) DeleteLink(ctx context.Context, owner uuid.UUID, code string) error {
	if _, err := s.ownedLink(ctx, owner, code); err != nil {
		return err
	}

	if err := s.linkRepo.Delete(ctx, code); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrLinkNotFound
		}
		return err
	}

	return nil
}

// QRCode рисует PNG с короткой ссылкой, size ограничивается диапазоном [128, 1024]
func (s *linkService) QRCode(ctx context.Context, owner uuid.UUID, code string, size int) ([]byte, error) {
	link, err := s.ownedLink(ctx, owner, code)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(s.baseURL+"/"+link.ShortCode, qrcode.Medium, clampQRSize(size))
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}

	return png, nil
}

// ownedLink находит ссылку и проверяет, что она принадлежит owner
func (s *linkService) ownedLink(ctx context.Context, owner uuid.UUID, code string) (*models.Link, error) {
	if owner == uuid.Nil {
		return nil, ErrAuthRequired
	}

	link, err := s.linkRepo.GetByShortCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	if !link.OwnedBy(owner) {
		return nil, ErrNotLinkOwner
	}

	return link, nil
}

// NormalizeTarget добавляет http://, если адрес не начинается с http:// или https://
func NormalizeTarget(target string) string {
	if schemePattern.MatchString(target) {
		return target
	}
	return "http://" + target
}

func clampQRSize(size int) int {
	switch {
	case size <= 0:
		return DefaultQRSize
	case size < minQRSize:
		return minQRSize
	case size > maxQRSize:
		return maxQRSize
	default:
		return size
	}
}
