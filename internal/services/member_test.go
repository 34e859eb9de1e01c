package services

import (
	"testing"

	"github.com/saeidsamfoladi/Telegrambot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAllocatesCode(t *testing.T) {
	db := newTestDB(t)
	members := NewMemberService(db, NewCodeService(db))

	member, created, err := members.Register(123, "user", "Имя", "Фамилия")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Regexp(t, `^[A-Z][0-9]{6}$`, member.MyCode)
	assert.Equal(t, models.ScreeningStatusPending, member.ScreeningStatus)
	assert.False(t, member.JoinedAt.IsZero())
}

func TestRegisterIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	members := NewMemberService(db, NewCodeService(db))

	first, _, err := members.Register(123, "user", "Имя", "Фамилия")
	require.NoError(t, err)

	second, created, err := members.Register(123, "user", "Имя", "Фамилия")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.MyCode, second.MyCode)
	assert.Equal(t, first.JoinedAt.Unix(), second.JoinedAt.Unix())
}

func TestFindByCode(t *testing.T) {
	db := newTestDB(t)
	members := NewMemberService(db, NewCodeService(db))

	member, _, err := members.Register(123, "user", "Имя", "Фамилия")
	require.NoError(t, err)

	found, err := members.FindByCode(member.MyCode)
	require.NoError(t, err)
	assert.EqualValues(t, 123, found.TelegramID)

	_, err = members.FindByCode("Z999999")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestCount(t *testing.T) {
	db := newTestDB(t)
	members := NewMemberService(db, NewCodeService(db))

	count, err := members.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	for i := int64(1); i <= 3; i++ {
		_, _, err := members.Register(i, "", "", "")
		require.NoError(t, err)
	}

	count, err = members.Count()
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}
