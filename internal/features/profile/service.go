package profile

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/membership"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MaxImageSize = 5 * 1024 * 1024

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrImageTooLarge   = errors.New("image must be 5MB or smaller")
	ErrImageType       = errors.New("only JPEG, PNG and WebP images are allowed")
	ErrImageEmpty      = errors.New("image file is empty")
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type Service struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// Get returns the user's profile.
func (s *Service) Get(userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &p, nil
}

// Update replaces the editable fields, creating the profile if it is missing.
func (s *Service) Update(userID uuid.UUID, req *UpdateRequest) (*models.Profile, error) {
	p := models.Profile{UserID: userID}
	err := s.db.Where("user_id = ?", userID).First(&p).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	p.DisplayName = strings.TrimSpace(req.DisplayName)
	p.FavoriteMeals = datatypes.JSONSlice[string](clean(req.FavoriteMeals))
	p.Hobbies = datatypes.JSONSlice[string](clean(req.Hobbies))
	p.Areas = datatypes.JSONSlice[string](clean(req.Areas))
	p.Bio = strings.TrimSpace(req.Bio)
	p.Budget = req.Budget
	p.Style = req.Style

	if err := s.db.Save(&p).Error; err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return &p, nil
}

// GetInCommunity returns another member's profile when both share communityID.
func (s *Service) GetInCommunity(targetID, communityID uuid.UUID) (*models.Profile, error) {
	ok, err := membership.IsApproved(s.db, targetID, communityID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProfileNotFound
	}
	return s.Get(targetID)
}

// SaveImage validates the upload, writes it under UploadDir and points the
// profile at it. The detected content type wins over the declared one.
func (s *Service) SaveImage(userID uuid.UUID, up *Upload) (string, error) {
	if up.Size == 0 || len(up.Content) == 0 {
		return "", ErrImageEmpty
	}
	if up.Size > MaxImageSize || len(up.Content) > MaxImageSize {
		return "", ErrImageTooLarge
	}
	mime := http.DetectContentType(up.Content)
	ext, ok := imageExt[mime]
	if !ok {
		return "", ErrImageType
	}

	dir := filepath.Join(s.cfg.UploadDir, "profiles")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	filename := fmt.Sprintf("%s_%s%s", userID.String()[:8], uuid.New().String()[:8], ext)
	savePath := filepath.Join(dir, filename)
	if err := os.WriteFile(savePath, up.Content, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	imageURL := strings.TrimRight(s.cfg.PublicURL, "/") + "/uploads/profiles/" + filename
	result := s.db.Model(&models.Profile{}).Where("user_id = ?", userID).Update("image_url", imageURL)
	if result.Error != nil || result.RowsAffected == 0 {
		os.Remove(savePath)
		if result.Error != nil {
			return "", fmt.Errorf("failed to update profile image: %w", result.Error)
		}
		return "", ErrProfileNotFound
	}
	return imageURL, nil
}

// Summaries loads public summaries keyed by user id. Missing profiles are skipped.
func Summaries(db *gorm.DB, userIDs []uuid.UUID) (map[uuid.UUID]Summary, error) {
	out := make(map[uuid.UUID]Summary, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []models.Profile
	if err := db.Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	for i := range rows {
		out[rows[i].UserID] = Summarize(&rows[i])
	}
	return out, nil
}

func Summarize(p *models.Profile) Summary {
	return Summary{
		UserID:        p.UserID,
		DisplayName:   p.DisplayName,
		Bio:           p.Bio,
		ImageURL:      p.ImageURL,
		FavoriteMeals: p.FavoriteMeals,
		Hobbies:       p.Hobbies,
		Areas:         p.Areas,
	}
}

func ToResponse(p *models.Profile) Response {
	return Response{Summary: Summarize(p), Budget: p.Budget, Style: p.Style}
}

func clean(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
