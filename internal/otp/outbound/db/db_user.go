package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/edubite/internal/otp/entity"
	"github.com/shandysiswandi/edubite/internal/pkg/goerror"
)

const (
	queryUserByEmail = `SELECT id, COALESCE(email, ''), COALESCE(phone, ''), is_verified, email_verified, phone_verified, points
FROM users WHERE email = $1 AND deleted_at IS NULL`

	queryUserByPhone = `SELECT id, COALESCE(email, ''), COALESCE(phone, ''), is_verified, email_verified, phone_verified, points
FROM users WHERE phone = $1 AND deleted_at IS NULL`

	querySaveOTPMirror = `UPDATE users SET otp = $2, otp_expiry = $3, updated_at = now() WHERE id = $1`

	queryClearOTPMirror = `UPDATE users SET otp = NULL, otp_expiry = NULL, updated_at = now() WHERE id = $1`

	queryLockVerified = `SELECT is_verified FROM users WHERE id = $1 FOR UPDATE`

	queryMarkVerified = `UPDATE users SET
    is_verified = TRUE,
    email_verified = email_verified OR $2,
    phone_verified = phone_verified OR $3,
    points = points + $4,
    updated_at = now()
WHERE id = $1`
)

// GetUserByIdentifier looks the user up by email or phone depending on ch.
func (s *DB) GetUserByIdentifier(ctx context.Context, identifier string, ch entity.Channel) (_ *entity.User, err error) {
	ctx, span, cancel := s.startSpan(ctx, "GetUserByIdentifier")
	defer func() { s.endSpan(span, cancel, err) }()

	query := queryUserByEmail
	if ch == entity.ChannelSMS {
		query = queryUserByPhone
	}

	var u entity.User
	if err = s.conn.QueryRow(ctx, query, identifier).Scan(
		&u.ID,
		&u.Email,
		&u.Phone,
		&u.IsVerified,
		&u.EmailVerified,
		&u.PhoneVerified,
		&u.Points,
	); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &u, nil
}

// SaveOTPMirror writes the legacy otp/otp_expiry columns. They are never read back.
func (s *DB) SaveOTPMirror(ctx context.Context, userID int64, codeHash string, expiresAt time.Time) (err error) {
	ctx, span, cancel := s.startSpan(ctx, "SaveOTPMirror")
	defer func() { s.endSpan(span, cancel, err) }()

	_, err = s.conn.Exec(ctx, querySaveOTPMirror, userID, codeHash, expiresAt)
	err = s.mapError(err)
	return err
}

func (s *DB) ClearOTPMirror(ctx context.Context, userID int64) (err error) {
	ctx, span, cancel := s.startSpan(ctx, "ClearOTPMirror")
	defer func() { s.endSpan(span, cancel, err) }()

	_, err = s.conn.Exec(ctx, queryClearOTPMirror, userID)
	err = s.mapError(err)
	return err
}

// MarkVerified flips the verification flags for ch and adds bonus points
// only on the first transition of is_verified. It reports whether the bonus
// was awarded.
func (s *DB) MarkVerified(ctx context.Context, userID int64, ch entity.Channel, bonus int64) (awarded bool, err error) {
	ctx, span, cancel := s.startSpan(ctx, "MarkVerified")
	defer func() { s.endSpan(span, cancel, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	var wasVerified bool
	if err = tx.QueryRow(ctx, queryLockVerified, userID).Scan(&wasVerified); err != nil {
		err = s.mapError(err)
		return false, err
	}

	points := int64(0)
	if !wasVerified {
		points = bonus
	}

	tag, err := tx.Exec(ctx, queryMarkVerified,
		userID,
		ch == entity.ChannelEmail || ch == entity.ChannelBoth,
		ch == entity.ChannelSMS || ch == entity.ChannelBoth,
		points,
	)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		err = s.mapError(err)
		return false, err
	}

	return !wasVerified, nil
}
