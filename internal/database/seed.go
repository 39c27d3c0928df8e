package database

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EnsureDefaults creates the default community and, when enabled, the seed
// admin. Safe to call on every start.
func EnsureDefaults(db *gorm.DB, cfg *config.Config) (*models.Community, error) {
	var community *models.Community
	if cfg.DefaultCommunityCode != "" {
		c, err := ensureCommunity(db, cfg.DefaultCommunityName, cfg.DefaultCommunityCode)
		if err != nil {
			return nil, err
		}
		community = c
	}

	if cfg.SeedAdminEnabled {
		if cfg.AdminEmail == "" || len(cfg.AdminPassword) < 8 {
			return community, errors.New("SEED_ADMIN_ENABLED requires ADMIN_EMAIL and an 8+ character ADMIN_PASSWORD")
		}
		admin, err := ensureUser(db, cfg.AdminEmail, cfg.AdminPassword, "Admin", true)
		if err != nil {
			return community, err
		}
		if community != nil {
			if err := ensureMembership(db, admin.ID, community.ID); err != nil {
				return community, err
			}
		}
		slog.Info("seed admin ensured", "email", cfg.AdminEmail)
	}

	return community, nil
}

var (
	seedMeals   = []string{"ramen", "sushi", "curry", "yakiniku", "pasta", "pho", "tacos"}
	seedHobbies = []string{"running", "board games", "films", "camping", "cooking", "music", "reading"}
	seedAreas   = []string{"Shibuya", "Shinjuku", "Ebisu", "Meguro"}
)

// SeedUsers creates demo members with profiles and availability in the given
// community. Existing seed users are left untouched.
func SeedUsers(db *gorm.DB, community *models.Community, count int) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	for i := 1; i <= count; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		user, err := ensureUser(db, email, "password", fmt.Sprintf("User %d", i), false)
		if err != nil {
			return err
		}
		if err := ensureMembership(db, user.ID, community.ID); err != nil {
			return err
		}

		profile := models.Profile{
			FavoriteMeals: datatypes.JSONSlice[string](pick(r, seedMeals, 3)),
			Hobbies:       datatypes.JSONSlice[string](pick(r, seedHobbies, 3)),
			Areas:         datatypes.JSONSlice[string](pick(r, seedAreas, 1)),
			Bio:           "Seeded for local development.",
		}
		if err := db.Model(&models.Profile{}).Where("user_id = ?", user.ID).Updates(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}

		for weekday := 0; weekday < 7; weekday++ {
			for _, slot := range []string{models.TimeSlotDay, models.TimeSlotNight} {
				status := models.AvailabilityUnavailable
				switch n := r.Intn(10); {
				case n < 5:
					status = models.AvailabilityAvailable
				case n < 7:
					status = models.AvailabilityMeetOnly
				}
				row := models.AvailabilitySlot{UserID: user.ID, Weekday: weekday, TimeSlot: slot, Status: status}
				if err := db.Where(models.AvailabilitySlot{UserID: user.ID, Weekday: weekday, TimeSlot: slot}).
					FirstOrCreate(&row).Error; err != nil {
					return fmt.Errorf("failed to seed availability: %w", err)
				}
			}
		}
	}

	slog.Info("seeded users", "count", count, "community", community.Name)
	return nil
}

func ensureCommunity(db *gorm.DB, name, code string) (*models.Community, error) {
	community := models.Community{Name: name, InviteCode: code}
	if err := db.Where(models.Community{InviteCode: code}).FirstOrCreate(&community).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure community: %w", err)
	}
	return &community, nil
}

func ensureUser(db *gorm.DB, email, password, displayName string, admin bool) (*models.User, error) {
	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if admin && !user.IsAdmin {
			if err := db.Model(&user).Update("is_admin", true).Error; err != nil {
				return nil, err
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user = models.User{
		Email:        &email,
		PasswordHash: string(hash),
		IsAdmin:      admin,
		AuthProvider: models.AuthProviderEmail,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Create(&models.Profile{UserID: user.ID, DisplayName: displayName}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed user: %w", err)
	}
	return &user, nil
}

func ensureMembership(db *gorm.DB, userID, communityID uuid.UUID) error {
	var m models.CommunityMembership
	err := db.Where("user_id = ? AND community_id = ?", userID, communityID).First(&m).Error
	if err == nil {
		if m.Status != models.MembershipApproved {
			return db.Model(&m).Update("status", models.MembershipApproved).Error
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return db.Create(&models.CommunityMembership{
		UserID:      userID,
		CommunityID: communityID,
		Status:      models.MembershipApproved,
	}).Error
}

func pick(r *rand.Rand, from []string, n int) []string {
	idx := r.Perm(len(from))
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, from[i])
	}
	return out
}
