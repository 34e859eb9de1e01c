package services

import (
	"errors"
	"time"

	"github.com/saeidsamfoladi/Telegrambot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrScreeningDone     = errors.New("screening already finished")
	ErrSessionNotFound   = errors.New("session not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrBadOption         = errors.New("option index out of range")
	ErrWrongQuestionType = errors.New("wrong question type")
)

// Grade thresholds for the cumulative positional score.
const (
	gradeAThreshold = 40
	gradeBThreshold = 32
	gradeCThreshold = 25
)

// PointsPerQuestion is the displayed per-question maximum (5-option convention).
const PointsPerQuestion = 5

type ScreeningService struct {
	db *gorm.DB
}

func NewScreeningService(db *gorm.DB) *ScreeningService {
	return &ScreeningService{db: db}
}

// Start opens the member's screening session, or resumes the existing one.
// Members whose status is no longer pending are rejected: a finished
// screening is terminal.
func (s *ScreeningService) Start(telegramID int64) (*models.ScreeningSession, bool, error) {
	var member models.Member
	if err := s.db.Where("tg_id = ?", telegramID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrMemberNotFound
		}
		return nil, false, err
	}
	if member.ScreeningStatus != models.ScreeningStatusPending {
		return nil, false, ErrScreeningDone
	}

	var session models.ScreeningSession
	if err := s.db.Where("tg_id = ?", telegramID).First(&session).Error; err == nil {
		return &session, false, nil
	}

	session = models.ScreeningSession{
		TelegramID: telegramID,
		StartedAt:  time.Now(),
	}
	if err := s.db.Create(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent start won; the unique index on tg_id keeps one
			// session per member.
			if err := s.db.Where("tg_id = ?", telegramID).First(&session).Error; err != nil {
				return nil, false, err
			}
			return &session, false, nil
		}
		return nil, false, err
	}
	return &session, true, nil
}

func (s *ScreeningService) GetSession(telegramID int64) (*models.ScreeningSession, error) {
	var session models.ScreeningSession
	if err := s.db.Where("tg_id = ?", telegramID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

// NextQuestion returns the first catalog question, in ascending id order, not
// yet answered in this session, plus the catalog size. A nil question with a
// nil error means every question has been answered.
func (s *ScreeningService) NextQuestion(sessionID uint) (*models.ScreeningQuestion, int, error) {
	var questions []models.ScreeningQuestion
	if err := s.db.Order("id ASC").Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	var answeredIDs []uint
	if err := s.db.Model(&models.ScreeningAnswer{}).
		Where("session_id = ?", sessionID).
		Pluck("question_id", &answeredIDs).Error; err != nil {
		return nil, 0, err
	}

	answered := make(map[uint]bool, len(answeredIDs))
	for _, id := range answeredIDs {
		answered[id] = true
	}

	for i := range questions {
		if !answered[questions[i].ID] {
			return &questions[i], len(questions), nil
		}
	}
	return nil, len(questions), nil
}

func (s *ScreeningService) CountAnswers(sessionID uint) (int, error) {
	var count int64
	if err := s.db.Model(&models.ScreeningAnswer{}).
		Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SubmitChoice records a multiple-choice answer. A repeated submission for an
// already-answered question is silently ignored.
func (s *ScreeningService) SubmitChoice(sessionID, questionID uint, chosenIndex int) error {
	var question models.ScreeningQuestion
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}
	if question.QType != models.QuestionTypeChoice {
		return ErrWrongQuestionType
	}
	if chosenIndex < 0 || chosenIndex >= len(question.Options) {
		return ErrBadOption
	}

	answer := models.ScreeningAnswer{
		SessionID:   sessionID,
		QuestionID:  questionID,
		ChosenIndex: &chosenIndex,
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&answer).Error
}

// SubmitText records a free-text answer. Free-text answers never contribute
// to the numeric score.
func (s *ScreeningService) SubmitText(sessionID, questionID uint, text string) error {
	var question models.ScreeningQuestion
	if err := s.db.First(&question, questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}
	if question.QType != models.QuestionTypeText {
		return ErrWrongQuestionType
	}

	answer := models.ScreeningAnswer{
		SessionID:  sessionID,
		QuestionID: questionID,
		AnswerText: text,
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&answer).Error
}

type ScreeningResult struct {
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
	Grade    string `json:"grade"`
}

// GradeFor maps a cumulative score to its grade letter. Scoring is
// positional: each choice answer contributes chosen index + 1, regardless of
// any designated correct option.
func GradeFor(score int) string {
	switch {
	case score >= gradeAThreshold:
		return "A"
	case score >= gradeBThreshold:
		return "B"
	case score >= gradeCThreshold:
		return "C"
	default:
		return "D"
	}
}

// Finish computes the session score and grade, stamps the session finished,
// and mirrors the grade onto the member's screening status. Calling it on an
// already-finished session returns the stored result.
func (s *ScreeningService) Finish(sessionID uint) (*ScreeningResult, error) {
	var session models.ScreeningSession
	if err := s.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	var total int64
	if err := s.db.Model(&models.ScreeningQuestion{}).Count(&total).Error; err != nil {
		return nil, err
	}
	maxScore := int(total) * PointsPerQuestion

	if session.FinishedAt != nil {
		return &ScreeningResult{Score: session.Score, MaxScore: maxScore, Grade: session.Result}, nil
	}

	var answers []models.ScreeningAnswer
	if err := s.db.Where("session_id = ?", sessionID).Find(&answers).Error; err != nil {
		return nil, err
	}

	score := 0
	for _, a := range answers {
		if a.ChosenIndex != nil {
			score += *a.ChosenIndex + 1
		}
	}
	grade := GradeFor(score)

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ScreeningSession{}).Where("id = ?", sessionID).
			Updates(map[string]interface{}{
				"score":       score,
				"result":      grade,
				"finished_at": now,
			}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Member{}).Where("tg_id = ?", session.TelegramID).
			Update("screening_status", grade).Error
	})
	if err != nil {
		return nil, err
	}

	return &ScreeningResult{Score: score, MaxScore: maxScore, Grade: grade}, nil
}
