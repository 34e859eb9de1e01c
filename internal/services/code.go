package services

import (
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"regexp"

	"github.com/saeidsamfoladi/Telegrambot/internal/models"

	"gorm.io/gorm"
)

var codePattern = regexp.MustCompile(`^[A-Z][0-9]{6}$`)

// IsValidCode reports whether s has the member-code shape: one uppercase
// letter followed by six digits.
func IsValidCode(s string) bool {
	return codePattern.MatchString(s)
}

const codeAttempts = 6

type CodeService struct {
	db *gorm.DB
}

func NewCodeService(db *gorm.DB) *CodeService {
	return &CodeService{db: db}
}

// WithTx returns a view of the allocator bound to tx, so callers can allocate
// inside their own transaction.
func (s *CodeService) WithTx(tx *gorm.DB) *CodeService {
	return &CodeService{db: tx}
}

func (s *CodeService) randomCode() (string, error) {
	letter, err := rand.Int(rand.Reader, big.NewInt(26))
	if err != nil {
		return "", err
	}
	code := []byte{byte('A' + letter.Int64())}
	for i := 0; i < 6; i++ {
		digit, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code = append(code, byte('0'+digit.Int64()))
	}
	return string(code), nil
}

// GenerateUniqueCode draws candidates until one is unused, up to codeAttempts.
// If every attempt collides it returns one last draw without an existence
// check: with 26 million possible codes the residual collision risk is
// accepted over unbounded retries.
func (s *CodeService) GenerateUniqueCode() (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := s.randomCode()
		if err != nil {
			return "", err
		}

		var count int64
		if err := s.db.Model(&models.Member{}).Where("my_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}

	log.Printf("code allocator: %d collisions in a row, returning unchecked draw", codeAttempts)
	return s.randomCode()
}

// EnsureCodeFormat returns the member's code, reallocating it first when the
// stored value does not match the required pattern. A missing member yields
// ("", nil): callers treat that as "not registered yet".
func (s *CodeService) EnsureCodeFormat(telegramID int64) (string, error) {
	var member models.Member
	if err := s.db.Where("tg_id = ?", telegramID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	if codePattern.MatchString(member.MyCode) {
		return member.MyCode, nil
	}

	code, err := s.GenerateUniqueCode()
	if err != nil {
		return "", err
	}
	if err := s.db.Model(&models.Member{}).Where("tg_id = ?", telegramID).Update("my_code", code).Error; err != nil {
		return "", err
	}
	log.Printf("code allocator: repaired code for member %d", telegramID)
	return code, nil
}

// RepairAll rewrites every malformed or missing code. Run at startup.
func (s *CodeService) RepairAll() error {
	var members []models.Member
	if err := s.db.Find(&members).Error; err != nil {
		return err
	}

	repaired := 0
	for _, m := range members {
		if codePattern.MatchString(m.MyCode) {
			continue
		}
		if _, err := s.EnsureCodeFormat(m.TelegramID); err != nil {
			return err
		}
		repaired++
	}

	if repaired > 0 {
		log.Printf("code allocator: repaired %d member codes", repaired)
	}
	return nil
}
