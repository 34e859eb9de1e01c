package services

import (
	"errors"

	"github.com/saeidsamfoladi/Telegrambot/internal/models"

	"gorm.io/gorm"
)

type QuestionService struct {
	db *gorm.DB
}

func NewQuestionService(db *gorm.DB) *QuestionService {
	return &QuestionService{db: db}
}

func (s *QuestionService) List() ([]models.ScreeningQuestion, error) {
	var questions []models.ScreeningQuestion
	if err := s.db.Order("id ASC").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *QuestionService) Create(qText, qType string, options []string, correctIndex *int) (*models.ScreeningQuestion, error) {
	if qType != models.QuestionTypeChoice && qType != models.QuestionTypeText {
		return nil, errors.New("question type must be choice or text")
	}
	if qType == models.QuestionTypeChoice && len(options) < 2 {
		return nil, errors.New("choice question needs at least two options")
	}

	question := models.ScreeningQuestion{
		QText:        qText,
		QType:        qType,
		Options:      options,
		CorrectIndex: correctIndex,
	}
	if err := s.db.Create(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *QuestionService) Update(id uint, qText string, options []string, correctIndex *int) (*models.ScreeningQuestion, error) {
	var question models.ScreeningQuestion
	if err := s.db.First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	question.QText = qText
	if question.QType == models.QuestionTypeChoice {
		if len(options) < 2 {
			return nil, errors.New("choice question needs at least two options")
		}
		question.Options = options
	}
	question.CorrectIndex = correctIndex

	if err := s.db.Save(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *QuestionService) Delete(id uint) error {
	res := s.db.Delete(&models.ScreeningQuestion{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}
