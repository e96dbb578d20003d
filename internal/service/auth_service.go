package service

import (
	"context"
	"errors"
	"time"

	"galleria-go/internal/config"
	infraRedis "galleria-go/internal/infra/redis"
	"galleria-go/pkg/logger"
	"galleria-go/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidPassword = errors.New("口令错误")
	ErrSessionRevoked  = errors.New("会话已失效")
)

// sessionKeyPrefix 会话撤销表的 Redis 键前缀
const sessionKeyPrefix = "galleria:admin_session:"

// AuthService 管理员认证：单一共享口令换取带签名的会话 Cookie
type AuthService struct {
	cfg    *config.AdminConfig
	issuer string
}

func NewAuthService(cfg *config.AdminConfig, issuer string) *AuthService {
	return &AuthService{cfg: cfg, issuer: issuer}
}

// Session 登录成功发放的会话
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Login 校验口令并发放会话
// 配置了 bcrypt 哈希时优先用哈希校验，否则对明文口令做常量时间比较
func (s *AuthService) Login(ctx context.Context, password string) (*Session, error) {
	ok := false
	if s.cfg.PasswordHash != "" {
		ok = utils.VerifyPassword(password, s.cfg.PasswordHash)
	} else {
		ok = utils.ConstantTimeEquals(password, s.cfg.Password)
	}
	if !ok {
		return nil, ErrInvalidPassword
	}

	sessionID := uuid.NewString()
	ttl := s.cfg.SessionDuration()

	// 会话撤销依赖 Redis；Redis 不可用时仍发放令牌，只是登出不再即时生效
	if rdb := infraRedis.Get(); rdb != nil {
		if err := rdb.Set(ctx, sessionKeyPrefix+sessionID, 1, ttl).Err(); err != nil {
			logger.Warn("Session store write failed, logout revocation degraded", zap.Error(err))
		}
	}

	token, err := utils.GenerateSessionToken(sessionID, s.cfg.CookieSecret, s.issuer, ttl)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: time.Now().Add(ttl)}, nil
}

// Logout 撤销会话
func (s *AuthService) Logout(ctx context.Context, token string) {
	claims, err := utils.ParseSessionToken(token, s.cfg.CookieSecret)
	if err != nil {
		return
	}
	if rdb := infraRedis.Get(); rdb != nil {
		if err := rdb.Del(ctx, sessionKeyPrefix+claims.SessionID).Err(); err != nil {
			logger.Warn("Session revocation failed", zap.Error(err))
		}
	}
}

// Verify 校验会话令牌；签名有效且（Redis 可用时）未被撤销才放行
func (s *AuthService) Verify(ctx context.Context, token string) error {
	claims, err := utils.ParseSessionToken(token, s.cfg.CookieSecret)
	if err != nil {
		return err
	}

	rdb := infraRedis.Get()
	if rdb == nil {
		return nil
	}
	n, err := rdb.Exists(ctx, sessionKeyPrefix+claims.SessionID).Result()
	if err != nil {
		// Redis 故障降级为仅签名校验
		logger.Warn("Session store unavailable, accepting signed token", zap.Error(err))
		return nil
	}
	if n == 0 {
		return ErrSessionRevoked
	}
	return nil
}
