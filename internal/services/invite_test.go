package services

import (
	"sync"
	"testing"
	"time"

	"github.com/saeidsamfoladi/Telegrambot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintFormat(t *testing.T) {
	db := newTestDB(t)
	invites := NewInviteService(db, NewCodeService(db))

	invite, err := invites.Mint(500, 3, 0, "встреча в субботу")
	require.NoError(t, err)
	assert.Regexp(t, `^INV-[0-9A-F]{8}$`, invite.Code)
	assert.Equal(t, 3, invite.AllowedUses)
	assert.Equal(t, 0, invite.UsedCount)
	assert.Nil(t, invite.ExpiresAt)
	assert.True(t, invite.Active)
	assert.EqualValues(t, 500, invite.CreatedBy)
}

func TestMintWithTTL(t *testing.T) {
	db := newTestDB(t)
	invites := NewInviteService(db, NewCodeService(db))

	invite, err := invites.Mint(500, 1, 48*time.Hour, "")
	require.NoError(t, err)
	require.NotNil(t, invite.ExpiresAt)
	assert.True(t, invite.ExpiresAt.After(time.Now().Add(47*time.Hour)))
}

func TestRedeemRegistersMember(t *testing.T) {
	db := newTestDB(t)
	invites := NewInviteService(db, NewCodeService(db))

	invite, err := invites.Mint(500, 2, 0, "")
	require.NoError(t, err)

	member, err := invites.Redeem(invite.Code, 777, "user", "Имя", "Фамилия")
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z][0-9]{6}$`, member.MyCode)
	assert.Equal(t, models.ScreeningStatusPending, member.ScreeningStatus)

	var stored models.InviteCode
	require.NoError(t, db.Where("code = ?", invite.Code).First(&stored).Error)
	assert.Equal(t, 1, stored.UsedCount)
}

func TestRedeemUnknownCode(t *testing.T) {
	db := newTestDB(t)
	invites := NewInviteService(db, NewCodeService(db))

	_, err := invites.Redeem("INV-DEADBEEF", 777, "", "", "")
	assert.ErrorIs(t, err, ErrInviteNotFound)
}

func TestRedeemAlreadyMember(t *testing.T) {
	db := newTestDB(t)
	invites := NewInviteService(db, NewCodeService(db))
	registerMember(t, db, 777)

	invite, err := invites.Mint(500, 1, 0, "")
	require.NoError(t, err)

	_, err = invites.Redeem(invite.Code, 777, "", "", "")
	assert.ErrorIs(t, err, ErrAlreadyMember)

	var stored models.InviteCode
	require.NoError(t, db.Where("code = ?", invite.Code).First(&stored).Error)
	assert.Equal(t, 0, stored.UsedCount, "rejected redemption must not consume a slot")
}

func TestRedeemCapacityExhausted(t *testing.T) {
	db := newTestDB(t)
	invites := NewInviteService(db, NewCodeService(db))

	invite, err := invites.Mint(500, 1, 0, "")
	require.NoError(t, err)

	_, err = invites.Redeem(invite.Code, 111, "", "", "")
	require.NoError(t, err)

	_, err = invites.Redeem(invite.Code, 222, "", "", "")
	assert.ErrorIs(t, err, ErrInviteExhausted)
}

func TestRedeemCapacityOneConcurrent(t *testing.T) {
	db := newTestDB(t)
	invites := NewInviteService(db, NewCodeService(db))

	invite, err := invites.Mint(500, 1, 0, "")
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = invites.Redeem(invite.Code, int64(1000+i), "", "", "")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrInviteExhausted)
		}
	}
	assert.Equal(t, 1, successes, "exactly one redeemer may win the last slot")
}

func TestRedeemExpired(t *testing.T) {
	db := newTestDB(t)
	invites := NewInviteService(db, NewCodeService(db))

	invite, err := invites.Mint(500, 1, time.Hour, "")
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.InviteCode{}).
		Where("code = ?", invite.Code).Update("expires_at", past).Error)

	_, err = invites.Redeem(invite.Code, 777, "", "", "")
	assert.ErrorIs(t, err, ErrInviteExpired)
}

func TestRevokeBlocksRedemptionKeepsMembers(t *testing.T) {
	db := newTestDB(t)
	invites := NewInviteService(db, NewCodeService(db))

	invite, err := invites.Mint(500, 5, 0, "")
	require.NoError(t, err)

	_, err = invites.Redeem(invite.Code, 111, "", "", "")
	require.NoError(t, err)

	require.NoError(t, invites.Revoke(invite.Code))

	_, err = invites.Redeem(invite.Code, 222, "", "", "")
	assert.ErrorIs(t, err, ErrInviteRevoked)

	var member models.Member
	assert.NoError(t, db.Where("tg_id = ?", int64(111)).First(&member).Error,
		"revocation must not undo prior redemptions")
}

func TestRevokeUnknownCode(t *testing.T) {
	db := newTestDB(t)
	invites := NewInviteService(db, NewCodeService(db))

	assert.ErrorIs(t, invites.Revoke("INV-DEADBEEF"), ErrInviteNotFound)
}
