package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss 缓存未命中
var ErrCacheMiss = errors.New("cache miss")

// ErrCacheStale 统计期间缓存已被失效，本次结果不写入
var ErrCacheStale = errors.New("cache stale")

// surveyResultsTTL 问卷统计缓存时间，提交和删除时会主动失效
const surveyResultsTTL = 10 * time.Minute

// InterfaceRedisService defines the Redis service interface
type InterfaceRedisService interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	SurveyResultsVersion(ctx context.Context, surveyID uint) (int64, error)
	CacheSurveyResults(ctx context.Context, results *SurveyResults, version int64) error
	GetSurveyResults(ctx context.Context, surveyID uint) (*SurveyResults, error)
	InvalidateSurveyResults(ctx context.Context, surveyID uint) error
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
}

// NewRedisService creates a new Redis service on an existing client
func NewRedisService(client *redis.Client) InterfaceRedisService {
	return &RedisService{Client: client}
}

func surveyResultsKey(surveyID uint) string {
	return fmt.Sprintf("survey_results:%d", surveyID)
}

// surveyResultsVersionKey 每次失效自增，用于丢弃失效前开始的统计
func surveyResultsVersionKey(surveyID uint) string {
	return fmt.Sprintf("survey_results_version:%d", surveyID)
}

// 1 Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, key, jsonValue, expiration).Err()
}

// 2 Get gets a value from Redis by key
func (s *RedisService) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := s.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// 3 Delete deletes a key from Redis
func (s *RedisService) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, key).Err()
}

// 4 SurveyResultsVersion 读取问卷统计的当前版本，未失效过时为 0
func (s *RedisService) SurveyResultsVersion(ctx context.Context, surveyID uint) (int64, error) {
	return readVersion(ctx, s.Client, surveyResultsVersionKey(surveyID))
}

// 5 CacheSurveyResults 缓存统计结果。version 必须是统计开始前读取的版本，
// 期间发生过失效则返回 ErrCacheStale 且不写入
func (s *RedisService) CacheSurveyResults(ctx context.Context, results *SurveyResults, version int64) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return err
	}

	versionKey := surveyResultsVersionKey(results.SurveyID)
	err = s.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, versionKey)
		if err != nil {
			return err
		}
		if current != version {
			return ErrCacheStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, surveyResultsKey(results.SurveyID), payload, surveyResultsTTL)
			return nil
		})
		return err
	}, versionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrCacheStale
	}
	return err
}

// 6 GetSurveyResults gets a cached tally
func (s *RedisService) GetSurveyResults(ctx context.Context, surveyID uint) (*SurveyResults, error) {
	var results SurveyResults
	if err := s.Get(ctx, surveyResultsKey(surveyID), &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// 7 InvalidateSurveyResults 删除缓存并推进版本，进行中的统计将不会写回
func (s *RedisService) InvalidateSurveyResults(ctx context.Context, surveyID uint) error {
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, surveyResultsVersionKey(surveyID))
		pipe.Del(ctx, surveyResultsKey(surveyID))
		return nil
	})
	return err
}

func readVersion(ctx context.Context, c redis.Cmdable, key string) (int64, error) {
	version, err := c.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return version, err
}
