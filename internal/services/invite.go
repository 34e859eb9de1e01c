package services

import (
	"errors"
	"strings"
	"time"

	"github.com/saeidsamfoladi/Telegrambot/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrInviteNotFound  = errors.New("invite code not found")
	ErrInviteRevoked   = errors.New("invite code revoked")
	ErrInviteExpired   = errors.New("invite code expired")
	ErrInviteExhausted = errors.New("invite code capacity exhausted")
	ErrAlreadyMember   = errors.New("already a member")
)

type InviteService struct {
	db    *gorm.DB
	codes *CodeService
}

func NewInviteService(db *gorm.DB, codes *CodeService) *InviteService {
	return &InviteService{db: db, codes: codes}
}

// Mint issues a new invitation code with an allowed-use count and optional
// lifetime (ttl <= 0 means no expiry).
func (s *InviteService) Mint(createdBy int64, allowedUses int, ttl time.Duration, note string) (*models.InviteCode, error) {
	if allowedUses < 1 {
		allowedUses = 1
	}

	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	invite := models.InviteCode{
		Code:        "INV-" + raw[:8],
		AllowedUses: allowedUses,
		ExpiresAt:   expiresAt,
		Note:        note,
		CreatedBy:   createdBy,
		Active:      true,
		CreatedAt:   time.Now(),
	}
	if err := s.db.Create(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// Redeem consumes one use of an invitation code and registers the member, in
// a single transaction. The capacity check is a guarded atomic increment, so
// two concurrent redeemers of a code with one slot left cannot both succeed.
func (s *InviteService) Redeem(code string, telegramID int64, username, firstName, lastName string) (*models.Member, error) {
	var member models.Member
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Member
		if err := tx.Where("tg_id = ?", telegramID).First(&existing).Error; err == nil {
			return ErrAlreadyMember
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now()
		res := tx.Model(&models.InviteCode{}).
			Where("code = ? AND active = ? AND used_count < allowed_uses AND (expires_at IS NULL OR expires_at > ?)",
				code, true, now).
			Update("used_count", gorm.Expr("used_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return s.classifyRejection(tx, code, now)
		}

		myCode, err := s.codes.WithTx(tx).GenerateUniqueCode()
		if err != nil {
			return err
		}
		member = models.Member{
			TelegramID:      telegramID,
			Username:        username,
			FirstName:       firstName,
			LastName:        lastName,
			JoinedAt:        now,
			MyCode:          myCode,
			ScreeningStatus: models.ScreeningStatusPending,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *InviteService) classifyRejection(tx *gorm.DB, code string, now time.Time) error {
	var invite models.InviteCode
	if err := tx.Where("code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInviteNotFound
		}
		return err
	}
	switch {
	case !invite.Active:
		return ErrInviteRevoked
	case invite.ExpiresAt != nil && !invite.ExpiresAt.After(now):
		return ErrInviteExpired
	default:
		return ErrInviteExhausted
	}
}

// Revoke deactivates a code. Members who already redeemed it are unaffected.
func (s *InviteService) Revoke(code string) error {
	res := s.db.Model(&models.InviteCode{}).Where("code = ?", code).Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInviteNotFound
	}
	return nil
}

func (s *InviteService) List() ([]models.InviteCode, error) {
	var invites []models.InviteCode
	if err := s.db.Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}
