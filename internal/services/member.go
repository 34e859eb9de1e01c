package services

import (
	"errors"
	"time"

	"github.com/saeidsamfoladi/Telegrambot/internal/models"

	"gorm.io/gorm"
)

var ErrMemberNotFound = errors.New("member not found")

type MemberService struct {
	db    *gorm.DB
	codes *CodeService
}

func NewMemberService(db *gorm.DB, codes *CodeService) *MemberService {
	return &MemberService{db: db, codes: codes}
}

// Register creates the member on first contact and allocates their code.
// Returns the member and whether it was created by this call; an existing
// member is returned as-is after a lazy code-format check.
func (s *MemberService) Register(telegramID int64, username, firstName, lastName string) (*models.Member, bool, error) {
	var member models.Member
	if err := s.db.Where("tg_id = ?", telegramID).First(&member).Error; err == nil {
		if code, err := s.codes.EnsureCodeFormat(telegramID); err == nil && code != "" {
			member.MyCode = code
		}
		return &member, false, nil
	}

	code, err := s.codes.GenerateUniqueCode()
	if err != nil {
		return nil, false, err
	}

	member = models.Member{
		TelegramID:      telegramID,
		Username:        username,
		FirstName:       firstName,
		LastName:        lastName,
		JoinedAt:        time.Now(),
		MyCode:          code,
		ScreeningStatus: models.ScreeningStatusPending,
	}
	if err := s.db.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent registration of the same user.
			if err := s.db.Where("tg_id = ?", telegramID).First(&member).Error; err != nil {
				return nil, false, err
			}
			return &member, false, nil
		}
		return nil, false, err
	}
	return &member, true, nil
}

func (s *MemberService) Get(telegramID int64) (*models.Member, error) {
	var member models.Member
	if err := s.db.Where("tg_id = ?", telegramID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (s *MemberService) FindByCode(code string) (*models.Member, error) {
	var member models.Member
	if err := s.db.Where("my_code = ?", code).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (s *MemberService) Count() (int64, error) {
	var count int64
	if err := s.db.Model(&models.Member{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *MemberService) List(limit int) ([]models.Member, error) {
	var members []models.Member
	q := s.db.Order("joined_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
