package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/farellandr/ticketmart/internal/helpers"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader  = "X-Idempotency-Key"
	IdempotencyKeyPrefix  = "ticketmart:idempotency:"
	DefaultIdempotencyTTL = 24 * time.Hour
	processingTTL         = 60 * time.Second
)

type idempotencyStatus string

const (
	statusProcessing idempotencyStatus = "processing"
	statusCompleted  idempotencyStatus = "completed"
)

type idempotencyRecord struct {
	Status       idempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
}

// RedisClient is the subset of *redis.Client the middleware needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Idempotency replays the stored response when a request repeats its
// X-Idempotency-Key. Requests without the header pass straight through, as
// do all requests when Redis is unreachable. Server errors are not stored so
// the client can retry.
func Idempotency(client RedisClient, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				log.Warn("failed to read request body", zap.String("idempotency_key", key), zap.Error(err))
				helpers.RespondWithError(c, http.StatusBadRequest, "Could not read request body")
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		hash := requestHash(c, body)
		redisKey := IdempotencyKeyPrefix + key
		ctx := c.Request.Context()

		existing, err := loadRecord(ctx, client, redisKey)
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if existing != nil {
			replay(c, existing, hash)
			return
		}

		record := &idempotencyRecord{Status: statusProcessing, RequestHash: hash}
		data, _ := json.Marshal(record)
		acquired, err := client.SetNX(ctx, redisKey, string(data), processingTTL).Result()
		if err != nil {
			log.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			if existing, _ := loadRecord(ctx, client, redisKey); existing != nil {
				replay(c, existing, hash)
				return
			}
		}

		rw := &capturingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rw
		c.Next()

		status := rw.Status()
		if status >= http.StatusInternalServerError {
			client.Del(context.WithoutCancel(ctx), redisKey)
			return
		}
		record.Status = statusCompleted
		record.ResponseCode = status
		record.ResponseBody = rw.body.String()
		data, _ = json.Marshal(record)
		if err := client.Set(context.WithoutCancel(ctx), redisKey, string(data), ttl).Err(); err != nil {
			log.Warn("failed to store idempotent response", zap.Error(err))
		}
	}
}

func replay(c *gin.Context, record *idempotencyRecord, hash string) {
	if record.RequestHash != hash {
		helpers.RespondWithError(c, http.StatusUnprocessableEntity, "Idempotency key already used with a different request")
		return
	}
	if record.Status == statusProcessing {
		helpers.RespondWithError(c, http.StatusConflict, "A request with this idempotency key is already being processed")
		return
	}
	c.Header("Idempotent-Replayed", "true")
	c.Data(record.ResponseCode, "application/json; charset=utf-8", []byte(record.ResponseBody))
	c.Abort()
}

func loadRecord(ctx context.Context, client RedisClient, key string) (*idempotencyRecord, error) {
	raw, err := client.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func requestHash(c *gin.Context, body []byte) string {
	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte(c.Request.URL.Path))
	if actor, ok := GetActor(c); ok {
		h.Write([]byte(actor.UserID.String()))
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type capturingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
