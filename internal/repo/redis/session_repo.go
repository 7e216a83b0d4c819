package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/vibecheck/backend/internal/services/auth"
)

const (
	sessionPrefix      = "vc:session:"
	refreshPrefix      = "vc:refresh:"
	userSessionsPrefix = "vc:user_sessions:"

	fieldUserID    = "user_id"
	fieldRole      = "role"
	fieldExpiresAt = "expires_at"
	fieldRefresh   = "refresh"
)

// SessionRepo stores a session hash per sid, a refresh digest pointing back to its sid,
// and the set of sids owned by each user. Raw refresh tokens are never written.
type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Create(ctx context.Context, session authsvc.SessionRecord, refreshToken string) error {
	if r.client == nil {
		return errNoClient
	}
	if strings.TrimSpace(session.SID) == "" || strings.TrimSpace(refreshToken) == "" || session.UserID == uuid.Nil {
		return authsvc.ErrInvalidInput
	}

	digest := refreshDigest(refreshToken)
	ttl := ttlFor(session.ExpiresAt)
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, sessionKey(session.SID), map[string]any{
			fieldUserID:    session.UserID.String(),
			fieldRole:      session.Role,
			fieldExpiresAt: session.ExpiresAt.Unix(),
			fieldRefresh:   digest,
		})
		pipe.Expire(ctx, sessionKey(session.SID), ttl)
		pipe.Set(ctx, refreshKey(digest), session.SID, ttl)
		pipe.SAdd(ctx, userSessionsKey(session.UserID), session.SID)
		pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *SessionRepo) GetSession(ctx context.Context, sid string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, errNoClient
	}
	session, _, err := r.load(ctx, sid)
	return session, err
}

func (r *SessionRepo) GetByRefreshToken(ctx context.Context, refreshToken string) (authsvc.SessionRecord, error) {
	if r.client == nil {
		return authsvc.SessionRecord{}, errNoClient
	}

	digest := refreshDigest(refreshToken)
	sid, err := r.client.Get(ctx, refreshKey(digest)).Result()
	if errors.Is(err, goredis.Nil) {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	if err != nil {
		return authsvc.SessionRecord{}, fmt.Errorf("get refresh pointer: %w", err)
	}

	session, current, err := r.load(ctx, sid)
	if errors.Is(err, authsvc.ErrSessionNotFound) {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	if err != nil {
		return authsvc.SessionRecord{}, err
	}
	if current != digest {
		return authsvc.SessionRecord{}, authsvc.ErrRefreshNotFound
	}
	return session, nil
}

// RotateRefresh replaces the refresh token of sid and extends the session. A concurrent
// rotation of the same session makes the loser fail with ErrRefreshNotFound.
func (r *SessionRepo) RotateRefresh(ctx context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	if r.client == nil {
		return errNoClient
	}

	oldDigest := refreshDigest(oldRefreshToken)
	newDigest := refreshDigest(newRefreshToken)
	key := sessionKey(sid)

	err := r.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.HGet(ctx, key, fieldRefresh).Result()
		if errors.Is(err, goredis.Nil) {
			return authsvc.ErrRefreshNotFound
		}
		if err != nil {
			return fmt.Errorf("load refresh digest: %w", err)
		}
		if current != oldDigest {
			return authsvc.ErrRefreshNotFound
		}
		owner, err := tx.HGet(ctx, key, fieldUserID).Result()
		if err != nil {
			return fmt.Errorf("load session owner: %w", err)
		}

		ttl := ttlFor(expiresAt)
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, refreshKey(oldDigest))
			pipe.HSet(ctx, key, fieldRefresh, newDigest, fieldExpiresAt, expiresAt.Unix())
			pipe.Expire(ctx, key, ttl)
			pipe.Set(ctx, refreshKey(newDigest), sid, ttl)
			pipe.Expire(ctx, userSessionsPrefix+owner, ttl)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		return authsvc.ErrRefreshNotFound
	}
	if err != nil && !errors.Is(err, authsvc.ErrRefreshNotFound) {
		return fmt.Errorf("rotate refresh token: %w", err)
	}
	return err
}

func (r *SessionRepo) DeleteSession(ctx context.Context, sid string) error {
	if r.client == nil {
		return errNoClient
	}
	if strings.TrimSpace(sid) == "" {
		return nil
	}

	values, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sid))
		if digest := values[fieldRefresh]; digest != "" {
			pipe.Del(ctx, refreshKey(digest))
		}
		if owner := values[fieldUserID]; owner != "" {
			pipe.SRem(ctx, userSessionsPrefix+owner, sid)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepo) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	if r.client == nil {
		return errNoClient
	}
	if userID == uuid.Nil {
		return authsvc.ErrInvalidInput
	}

	sids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list user sessions: %w", err)
	}
	for _, sid := range sids {
		if err := r.DeleteSession(ctx, sid); err != nil {
			return err
		}
	}
	if err := r.client.Del(ctx, userSessionsKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r *SessionRepo) load(ctx context.Context, sid string) (authsvc.SessionRecord, string, error) {
	values, err := r.client.HGetAll(ctx, sessionKey(sid)).Result()
	if err != nil {
		return authsvc.SessionRecord{}, "", fmt.Errorf("get session: %w", err)
	}
	if len(values) == 0 {
		return authsvc.SessionRecord{}, "", authsvc.ErrSessionNotFound
	}

	userID, err := uuid.Parse(values[fieldUserID])
	if err != nil || userID == uuid.Nil {
		return authsvc.SessionRecord{}, "", authsvc.ErrUnauthorized
	}
	expiresUnix, err := strconv.ParseInt(values[fieldExpiresAt], 10, 64)
	if err != nil {
		return authsvc.SessionRecord{}, "", authsvc.ErrUnauthorized
	}

	return authsvc.SessionRecord{
		SID:       sid,
		UserID:    userID,
		Role:      values[fieldRole],
		ExpiresAt: time.Unix(expiresUnix, 0).UTC(),
	}, values[fieldRefresh], nil
}

func refreshDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func ttlFor(expiresAt time.Time) time.Duration {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return time.Second
	}
	return ttl
}

func sessionKey(sid string) string {
	return sessionPrefix + sid
}

func refreshKey(digest string) string {
	return refreshPrefix + digest
}

func userSessionsKey(userID uuid.UUID) string {
	return userSessionsPrefix + userID.String()
}
