package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"condo-http-service/internal/domain/access"
	"condo-http-service/internal/domain/models"
	"condo-http-service/internal/infrastructure/config"
	"condo-http-service/pkg/utils"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InterfaceJWTService 定义JWT服务接口
type InterfaceJWTService interface {
	GenerateToken(userID uint, role models.Role) (string, error)
	ValidateToken(tokenString string) (*jwt.Token, error)
	ExtractClaims(tokenString string) (*JWTClaims, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Identify(ctx context.Context, tokenString string) (access.Actor, error)
}

// LoginResult 表示登录结果
type LoginResult struct {
	Token     string      `json:"token"`
	UserID    uint        `json:"user_id"`
	Role      models.Role `json:"role"`
	Username  string      `json:"username"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// JWTService 提供JWT相关服务
type JWTService struct {
	secretKey string
	issuer    string
	ttl       time.Duration
	DB        *gorm.DB
	Log       *zap.Logger
}

// JWTClaims 定义JWT令牌的声明结构
type JWTClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// NewJWTService 创建一个新的JWT服务
func NewJWTService(cfg *config.Config, db *gorm.DB, log *zap.Logger) InterfaceJWTService {
	ttl := time.Duration(cfg.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTService{
		secretKey: cfg.JWTSecretKey,
		issuer:    "condo-http-service",
		ttl:       ttl,
		DB:        db,
		Log:       log,
	}
}

// 1 GenerateToken 生成JWT令牌
func (s *JWTService) GenerateToken(userID uint, role models.Role) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID: userID,
		Role:   role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secretKey))
}

// 2 ValidateToken 验证JWT令牌
func (s *JWTService) ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secretKey), nil
	})
}

// 3 ExtractClaims 从令牌中提取声明
func (s *JWTService) ExtractClaims(tokenString string) (*JWTClaims, error) {
	token, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Issuer != s.issuer {
		return nil, errors.New("invalid token issuer")
	}
	return claims, nil
}

// 4 Login 校验用户名密码，停用账户不能登录
func (s *JWTService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, ErrUserPasswordIncorrect)
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrUserPasswordIncorrect
	}
	if !user.Active {
		return nil, ErrUserInactive
	}

	// 哈希强度变化后在登录时重新计算，失败不影响本次登录
	if utils.NeedsRehash(user.Password) {
		hash, err := utils.HashPassword(password)
		if err == nil {
			err = s.DB.WithContext(ctx).Model(&user).Update("password", hash).Error
		}
		if err != nil {
			s.Log.Warn("rehash password failed", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}

	token, err := s.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		UserID:    user.ID,
		Role:      user.Role,
		Username:  user.Username,
		ExpiresAt: time.Now().Add(s.ttl),
	}, nil
}

// 5 Identify 解析令牌并从数据库加载调用者，已停用的账户令牌立即失效
func (s *JWTService) Identify(ctx context.Context, tokenString string) (access.Actor, error) {
	claims, err := s.ExtractClaims(tokenString)
	if err != nil {
		return access.Anonymous(), err
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Select("id", "role", "active").First(&user, claims.UserID).Error; err != nil {
		return access.Anonymous(), notFound(err, ErrUserNotFound)
	}
	if !user.Active {
		return access.Anonymous(), ErrUserInactive
	}
	return access.NewActor(user.ID, user.Role), nil
}
