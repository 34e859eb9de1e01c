package services

import (
	"testing"

	"github.com/saeidsamfoladi/Telegrambot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradeFor(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{45, "A"},
		{44, "A"},
		{40, "A"},
		{39, "B"},
		{35, "B"},
		{32, "B"},
		{31, "C"},
		{27, "C"},
		{25, "C"},
		{24, "D"},
		{10, "D"},
		{0, "D"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, GradeFor(c.score), "score %d", c.score)
	}
}

func TestStartRequiresRegistration(t *testing.T) {
	screening := NewScreeningService(newTestDB(t))

	_, _, err := screening.Start(123)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestStartResumesExistingSession(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db)
	registerMember(t, db, 123)

	first, created, err := screening.Start(123)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := screening.Start(123)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestQuestionOrderStableAndNoRepeats(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db)
	seedChoiceQuestions(t, db, 9)
	registerMember(t, db, 123)

	session, _, err := screening.Start(123)
	require.NoError(t, err)

	var asked []uint
	for {
		q, total, err := screening.NextQuestion(session.ID)
		require.NoError(t, err)
		assert.Equal(t, 9, total)
		if q == nil {
			break
		}
		asked = append(asked, q.ID)
		require.NoError(t, screening.SubmitChoice(session.ID, q.ID, 0))
	}

	require.Len(t, asked, 9)
	seen := map[uint]bool{}
	for i, id := range asked {
		assert.False(t, seen[id], "question %d asked twice", id)
		seen[id] = true
		if i > 0 {
			assert.Greater(t, id, asked[i-1], "catalog order must be ascending")
		}
	}
}

func TestDuplicateChoiceIgnored(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db)
	questions := seedChoiceQuestions(t, db, 1)
	registerMember(t, db, 123)

	session, _, err := screening.Start(123)
	require.NoError(t, err)

	require.NoError(t, screening.SubmitChoice(session.ID, questions[0].ID, 2))
	require.NoError(t, screening.SubmitChoice(session.ID, questions[0].ID, 4))

	var answers []models.ScreeningAnswer
	require.NoError(t, db.Where("session_id = ?", session.ID).Find(&answers).Error)
	require.Len(t, answers, 1)
	require.NotNil(t, answers[0].ChosenIndex)
	assert.Equal(t, 2, *answers[0].ChosenIndex)
}

func TestSubmitChoiceValidation(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db)
	questions := seedChoiceQuestions(t, db, 1)

	text := models.ScreeningQuestion{QText: "расскажите о себе", QType: models.QuestionTypeText}
	require.NoError(t, db.Create(&text).Error)

	registerMember(t, db, 123)
	session, _, err := screening.Start(123)
	require.NoError(t, err)

	assert.ErrorIs(t, screening.SubmitChoice(session.ID, 9999, 0), ErrQuestionNotFound)
	assert.ErrorIs(t, screening.SubmitChoice(session.ID, questions[0].ID, 5), ErrBadOption)
	assert.ErrorIs(t, screening.SubmitChoice(session.ID, questions[0].ID, -1), ErrBadOption)
	assert.ErrorIs(t, screening.SubmitChoice(session.ID, text.ID, 0), ErrWrongQuestionType)
	assert.ErrorIs(t, screening.SubmitText(session.ID, questions[0].ID, "hi"), ErrWrongQuestionType)
}

func TestPositionalScoringAndGrades(t *testing.T) {
	cases := []struct {
		name      string
		indices   []int
		wantScore int
		wantGrade string
	}{
		{"gradeA", []int{4, 4, 4, 4, 4, 4, 4, 4, 3}, 44, "A"},
		{"gradeB", []int{4, 4, 4, 4, 4, 2, 2, 1, 1}, 35, "B"},
		{"gradeC", []int{2, 2, 2, 2, 2, 2, 2, 2, 2}, 27, "C"},
		{"gradeD", []int{1, 0, 0, 0, 0, 0, 0, 0, 0}, 10, "D"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			db := newTestDB(t)
			screening := NewScreeningService(db)
			questions := seedChoiceQuestions(t, db, 9)
			registerMember(t, db, 123)

			session, _, err := screening.Start(123)
			require.NoError(t, err)

			for i, idx := range c.indices {
				require.NoError(t, screening.SubmitChoice(session.ID, questions[i].ID, idx))
			}

			result, err := screening.Finish(session.ID)
			require.NoError(t, err)
			assert.Equal(t, c.wantScore, result.Score)
			assert.Equal(t, 45, result.MaxScore)
			assert.Equal(t, c.wantGrade, result.Grade)

			var stored models.ScreeningSession
			require.NoError(t, db.First(&stored, session.ID).Error)
			assert.NotNil(t, stored.FinishedAt)
			assert.Equal(t, c.wantScore, stored.Score)
			assert.Equal(t, c.wantGrade, stored.Result)

			var member models.Member
			require.NoError(t, db.Where("tg_id = ?", int64(123)).First(&member).Error)
			assert.Equal(t, c.wantGrade, member.ScreeningStatus)
		})
	}
}

func TestFreeTextDoesNotScore(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db)
	questions := seedChoiceQuestions(t, db, 1)

	text := models.ScreeningQuestion{QText: "расскажите о себе", QType: models.QuestionTypeText}
	require.NoError(t, db.Create(&text).Error)

	registerMember(t, db, 123)
	session, _, err := screening.Start(123)
	require.NoError(t, err)

	require.NoError(t, screening.SubmitChoice(session.ID, questions[0].ID, 3))
	require.NoError(t, screening.SubmitText(session.ID, text.ID, "длинный рассказ"))

	result, err := screening.Finish(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Score)
}

func TestStartAfterFinishIsTerminal(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db)
	questions := seedChoiceQuestions(t, db, 1)
	registerMember(t, db, 123)

	session, _, err := screening.Start(123)
	require.NoError(t, err)
	require.NoError(t, screening.SubmitChoice(session.ID, questions[0].ID, 0))
	_, err = screening.Finish(session.ID)
	require.NoError(t, err)

	_, _, err = screening.Start(123)
	assert.ErrorIs(t, err, ErrScreeningDone)

	var count int64
	require.NoError(t, db.Model(&models.ScreeningSession{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestFinishIdempotent(t *testing.T) {
	db := newTestDB(t)
	screening := NewScreeningService(db)
	questions := seedChoiceQuestions(t, db, 2)
	registerMember(t, db, 123)

	session, _, err := screening.Start(123)
	require.NoError(t, err)
	require.NoError(t, screening.SubmitChoice(session.ID, questions[0].ID, 4))
	require.NoError(t, screening.SubmitChoice(session.ID, questions[1].ID, 4))

	first, err := screening.Finish(session.ID)
	require.NoError(t, err)
	second, err := screening.Finish(session.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
