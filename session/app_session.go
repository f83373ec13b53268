package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AppSessionStore 登入會話存 Redis；每個社員另維護一個 session id
// 集合，刪除社員時可以一次撤銷所有會話。
type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

type AppSession struct {
	MemberID  uint  `json:"mid"`
	IsAdmin   bool  `json:"adm"`
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}

func key(id string) string         { return fmt.Sprintf("club:sess:%s", id) }
func memberSetKey(mid uint) string { return fmt.Sprintf("club:member_sessions:%d", mid) }

// Create 建立會話；ttl <= 0 時用 store 預設（「記住我」傳長 TTL 進來）
func (s *AppSessionStore) Create(ctx context.Context, id string, memberID uint, isAdmin bool, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	now := time.Now()
	b, _ := json.Marshal(AppSession{
		MemberID:  memberID,
		IsAdmin:   isAdmin,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(id), b, ttl)
	pipe.SAdd(ctx, memberSetKey(memberID), id)
	pipe.Expire(ctx, memberSetKey(memberID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Get(ctx context.Context, id string) (*AppSession, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	return &as, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, id string) error {
	as, _ := s.Get(ctx, id) // 取不到就只刪主鍵
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	if as != nil {
		pipe.SRem(ctx, memberSetKey(as.MemberID), id)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeAllForMember 刪除社員時撤銷其所有會話
func (s *AppSessionStore) RevokeAllForMember(ctx context.Context, memberID uint) error {
	ids, err := s.rdb.SMembers(ctx, memberSetKey(memberID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	for _, sid := range ids {
		pipe.Del(ctx, key(sid))
	}
	pipe.Del(ctx, memberSetKey(memberID))
	_, err = pipe.Exec(ctx)
	return err
}
