package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/porchlight-app/server/internal/helpers"
	"github.com/porchlight-app/server/internal/models"
)

type PushService struct {
	pushRepo models.PushRepo
}

func NewPushService(pushRepo models.PushRepo) *PushService {
	return &PushService{
		pushRepo: pushRepo,
	}
}

type PushRegisterInput struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform"`
	// UID lets an admin register a token on another person's behalf.
	UID string `json:"uid"`
}

// resolveTarget picks whose record an operation touches: the caller's own,
// unless an admin names someone else.
func resolveTarget(actor helpers.Identity, uid string) (string, error) {
	if uid == "" || uid == actor.UID {
		return actor.UID, nil
	}
	if !actor.Admin {
		return "", models.ErrForbidden
	}
	return uid, nil
}

// Register adds a device token to the target's record, deduplicating and
// keeping the token list sorted for stable reads.
func (ps *PushService) Register(ctx context.Context, actor helpers.Identity, input *PushRegisterInput) (*models.PushTokens, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	uid, err := resolveTarget(actor, input.UID)
	if err != nil {
		return nil, err
	}

	platform := strings.ToLower(strings.TrimSpace(input.Platform))
	if platform == "" {
		platform = "unknown"
	}

	now := time.Now().UTC()
	record, err := ps.pushRepo.GetPushTokens(ctx, uid)
	if errors.Is(err, models.ErrNotFound) {
		record = &models.PushTokens{
			UID:       uid,
			Tokens:    []string{},
			Platforms: map[string]string{},
			CreatedAt: now,
		}
	} else if err != nil {
		return nil, err
	}

	found := false
	for _, t := range record.Tokens {
		if t == input.Token {
			found = true
			break
		}
	}
	if !found {
		record.Tokens = append(record.Tokens, input.Token)
		sort.Strings(record.Tokens)
	}
	if record.Platforms == nil {
		record.Platforms = map[string]string{}
	}
	record.Platforms[input.Token] = platform
	record.UpdatedAt = now

	if err := ps.pushRepo.SavePushTokens(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// Get returns the target's registered tokens; an absent record reads as an
// empty one rather than an error.
func (ps *PushService) Get(ctx context.Context, actor helpers.Identity, uid string) (*models.PushTokens, error) {
	target, err := resolveTarget(actor, uid)
	if err != nil {
		return nil, err
	}
	record, err := ps.pushRepo.GetPushTokens(ctx, target)
	if errors.Is(err, models.ErrNotFound) {
		return &models.PushTokens{
			UID:       target,
			Tokens:    []string{},
			Platforms: map[string]string{},
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Unregister drops one device token from the caller's record. Removing a
// token that was never registered is a success no-op.
func (ps *PushService) Unregister(ctx context.Context, actor helpers.Identity, token string) (*models.PushTokens, error) {
	if token == "" {
		return nil, models.Invalid("token", "required")
	}

	record, err := ps.pushRepo.GetPushTokens(ctx, actor.UID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.PushTokens{
			UID:       actor.UID,
			Tokens:    []string{},
			Platforms: map[string]string{},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	kept := record.Tokens[:0]
	for _, t := range record.Tokens {
		if t != token {
			kept = append(kept, t)
		}
	}
	record.Tokens = kept
	delete(record.Platforms, token)
	record.UpdatedAt = time.Now().UTC()

	if err := ps.pushRepo.SavePushTokens(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}
