package services

import (
	"strings"
	"testing"

	"github.com/saeidsamfoladi/Telegrambot/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection serializes writers the way postgres row locks do
	// in production, and keeps sqlite from returning "database is locked".
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Admin{},
		&models.Member{},
		&models.ScreeningQuestion{},
		&models.ScreeningSession{},
		&models.ScreeningAnswer{},
		&models.InviteCode{},
	))
	return db
}

func seedChoiceQuestions(t *testing.T, db *gorm.DB, n int) []models.ScreeningQuestion {
	t.Helper()

	questions := make([]models.ScreeningQuestion, 0, n)
	for i := 0; i < n; i++ {
		q := models.ScreeningQuestion{
			QText:   "question",
			QType:   models.QuestionTypeChoice,
			Options: []string{"никогда", "редко", "иногда", "часто", "всегда"},
		}
		require.NoError(t, db.Create(&q).Error)
		questions = append(questions, q)
	}
	return questions
}

func registerMember(t *testing.T, db *gorm.DB, telegramID int64) *models.Member {
	t.Helper()

	members := NewMemberService(db, NewCodeService(db))
	member, created, err := members.Register(telegramID, "user", "Имя", "Фамилия")
	require.NoError(t, err)
	require.True(t, created)
	return member
}
