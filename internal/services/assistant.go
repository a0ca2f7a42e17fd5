package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
	"github.com/HalooLaloo/quotesnap-sub000/internal/ratelimit"
	"github.com/HalooLaloo/quotesnap-sub000/internal/suggest"
)

// AssistantService fronts the line-item suggestion assistant: it loads the
// contractor's price list, enforces the per-contractor rate limit, and
// shape-validates whatever comes back. The assistant itself is a black box
// behind the Suggester interface.
type AssistantService struct {
	db        *gorm.DB
	suggester suggest.Suggester
	limiter   *ratelimit.Limiter
}

func NewAssistantService(db *gorm.DB, sg suggest.Suggester, limiter *ratelimit.Limiter) *AssistantService {
	return &AssistantService{db: db, suggester: sg, limiter: limiter}
}

// SuggestItems proposes candidate quote items for a job description. Returns
// ErrRateLimited when the contractor's window is exhausted; callers map that
// to a distinct response so the UI can say "try later" instead of "failed".
func (s *AssistantService) SuggestItems(ctx context.Context, userID uint, description string) ([]suggest.CandidateItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, &ValidationError{Violations: map[string]string{"description": "description is required"}}
	}

	allowed, err := s.limiter.Allow(ctx, fmt.Sprintf("suggest:%d", userID))
	if err != nil {
		// Fail open: the limiter backend being down must not take the
		// assistant down.
		allowed = true
	}
	if !allowed {
		return nil, ErrRateLimited
	}

	var priceList []models.Service
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&priceList).Error; err != nil {
		return nil, err
	}
	entries := make([]suggest.PriceListEntry, 0, len(priceList))
	for _, svc := range priceList {
		entries = append(entries, suggest.PriceListEntry{Name: svc.Name, Unit: svc.Unit, Price: svc.Price})
	}

	items, err := s.suggester.Suggest(ctx, description, entries)
	if err != nil {
		return nil, fmt.Errorf("suggesting items: %w", err)
	}
	return suggest.ValidateCandidates(items), nil
}
