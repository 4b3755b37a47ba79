package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/porchlight-app/server/internal/cursor"
	"github.com/porchlight-app/server/internal/helpers"
	"github.com/porchlight-app/server/internal/models"
)

type DirectoryService struct {
	householdRepo models.HouseholdRepo
	profileRepo   models.ProfileRepo
}

func NewDirectoryService(householdRepo models.HouseholdRepo, profileRepo models.ProfileRepo) *DirectoryService {
	return &DirectoryService{
		householdRepo: householdRepo,
		profileRepo:   profileRepo,
	}
}

// DirectoryFilter narrows the people listing. AgeMin/AgeMax are applied only
// when at least one of them is supplied; the absent bound defaults to 0 or 18.
type DirectoryFilter struct {
	Neighborhood string
	Type         string
	AgeMin       *int
	AgeMax       *int
	Search       string
}

func (f DirectoryFilter) Signature() string {
	ageMin, ageMax := "", ""
	if f.AgeMin != nil {
		ageMin = strconv.Itoa(*f.AgeMin)
	}
	if f.AgeMax != nil {
		ageMax = strconv.Itoa(*f.AgeMax)
	}
	return strings.Join([]string{
		"people", f.Neighborhood, f.Type, ageMin, ageMax, strings.ToLower(f.Search),
	}, "|")
}

type HouseholdPage struct {
	Items         []models.Household `json:"items"`
	NextPageToken string             `json:"nextPageToken,omitempty"`
}

func sortKey(h models.Household) string {
	return strings.ToLower(h.LastName)
}

func matchesDirectoryFilter(h models.Household, f DirectoryFilter) bool {
	if f.Neighborhood != "" && h.Neighborhood != f.Neighborhood {
		return false
	}
	if f.Type != "" && h.Type != f.Type {
		return false
	}
	if f.AgeMin != nil || f.AgeMax != nil {
		min, max := 0, 18
		if f.AgeMin != nil {
			min = *f.AgeMin
		}
		if f.AgeMax != nil {
			max = *f.AgeMax
		}
		if !h.MatchesAgeRange(min, max) {
			return false
		}
	}
	if f.Search != "" &&
		!strings.HasPrefix(strings.ToLower(h.LastName), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// List returns the normalized, filtered directory page sorted by last name
// then id. The household set is modest, so filtering happens over a full scan
// rather than pushing predicates into the store.
func (ds *DirectoryService) List(ctx context.Context, filter DirectoryFilter, pageToken string, limit int) (*HouseholdPage, error) {
	if filter.AgeMin != nil && filter.AgeMax != nil && *filter.AgeMin > *filter.AgeMax {
		return nil, models.Invalid("ageMin", "must not exceed ageMax")
	}
	limit = clampLimit(limit)

	var after *cursor.Key
	if pageToken != "" {
		key, err := cursor.Decode(filter.Signature(), pageToken)
		if err != nil {
			return nil, err
		}
		after = &key
	}

	rows, err := ds.householdRepo.ListHouseholds(ctx)
	if err != nil {
		return nil, err
	}

	matched := []models.Household{}
	for _, row := range rows {
		h := models.NormalizeHousehold(row.ID, row.Doc)
		if matchesDirectoryFilter(h, filter) {
			matched = append(matched, h)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		ki, kj := sortKey(matched[i]), sortKey(matched[j])
		if ki != kj {
			return ki < kj
		}
		return matched[i].ID < matched[j].ID
	})

	if after != nil {
		idx := 0
		for idx < len(matched) {
			k := sortKey(matched[idx])
			if k > after.Primary || (k == after.Primary && matched[idx].ID > after.ID) {
				break
			}
			idx++
		}
		matched = matched[idx:]
	}

	hasMore := len(matched) > limit
	if hasMore {
		matched = matched[:limit]
	}

	page := &HouseholdPage{Items: matched}
	if hasMore {
		last := matched[len(matched)-1]
		page.NextPageToken = cursor.Encode(filter.Signature(), cursor.Key{
			Primary: sortKey(last),
			ID:      last.ID,
		})
	}
	return page, nil
}

func (ds *DirectoryService) Get(ctx context.Context, id string) (*models.Household, error) {
	if id == "" {
		return nil, models.Invalid("id", "required")
	}
	doc, err := ds.householdRepo.GetHousehold(ctx, id)
	if err != nil {
		return nil, err
	}
	h := models.NormalizeHousehold(id, doc)
	return &h, nil
}

// UpsertMine merges the caller's household document, stamping ownership so a
// record can never be written under someone else's id.
func (ds *DirectoryService) UpsertMine(ctx context.Context, actor helpers.Identity, doc map[string]any) (*models.Household, error) {
	if len(doc) == 0 {
		return nil, models.Invalid("body", "must not be empty")
	}
	doc["uid"] = actor.UID
	if actor.Email != "" {
		doc["email"] = actor.Email
	}

	stored, err := ds.householdRepo.UpsertHousehold(ctx, actor.UID, doc)
	if err != nil {
		return nil, err
	}
	h := models.NormalizeHousehold(actor.UID, stored)
	return &h, nil
}

// ListFavorites resolves the caller's favorite households. Ids pointing at
// since-deleted households are skipped, not errored.
func (ds *DirectoryService) ListFavorites(ctx context.Context, actor helpers.Identity) ([]models.Household, error) {
	ids, err := ds.profileRepo.GetFavorites(ctx, actor.UID)
	if err != nil {
		return nil, err
	}

	households := []models.Household{}
	for _, id := range ids {
		doc, err := ds.householdRepo.GetHousehold(ctx, id)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		households = append(households, models.NormalizeHousehold(id, doc))
	}
	return households, nil
}

func (ds *DirectoryService) AddFavorite(ctx context.Context, actor helpers.Identity, householdID string) ([]string, error) {
	if householdID == "" {
		return nil, models.Invalid("householdId", "required")
	}
	return ds.profileRepo.AddFavorite(ctx, actor.UID, householdID)
}

func (ds *DirectoryService) RemoveFavorite(ctx context.Context, actor helpers.Identity, householdID string) ([]string, error) {
	if householdID == "" {
		return nil, models.Invalid("householdId", "required")
	}
	return ds.profileRepo.RemoveFavorite(ctx, actor.UID, householdID)
}
