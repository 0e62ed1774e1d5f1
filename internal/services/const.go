package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrInvalidTransition   = errors.New("invalid redemption transition")
	ErrRecordNotFound      = errors.New("record not found")
	ErrPersistenceFailure  = errors.New("persistence failure")
	ErrAdvisoryUnavailable = errors.New("advisory service unavailable")
	ErrForbidden           = errors.New("admin role required")
	ErrInvalidInput        = errors.New("invalid input")
	ErrLedgerLock          = errors.New("ledger locked")
)

const (
	CONFIG_STORE_BACKEND         = "STORE_BACKEND"
	CONFIG_DATA_DIR              = "DATA_DIR"
	CONFIG_CLASSIFY_RATE_LIMIT   = "CLASSIFY_RATE_LIMIT_PER_MINUTE"
	CONFIG_LEADERBOARD_LIMIT     = "LEADERBOARD_LIMIT"
	CONFIG_ADVICE_API_URL        = "ADVICE_API_URL"
	CONFIG_ADVICE_API_KEY        = "ADVICE_API_KEY"
	CONFIG_ADVICE_MODEL          = "ADVICE_MODEL"
	CONFIG_ADVICE_TIMEOUT_SECOND = "ADVICE_TIMEOUT_SECONDS"
	CONFIG_ADMIN_CHAT_ID         = "ADMIN_CHAT_ID"

	STORE_BACKEND_FILE     = "file"
	STORE_BACKEND_POSTGRES = "postgres"
	STORE_BACKEND_REDIS    = "redis"

	LEADERBOARD_POINTS = "points"

	LEADERBOARD_DEFAULT_LIMIT            = 20
	CLASSIFY_DEFAULT_RATE_LIMIT          = 10
	ADVICE_DEFAULT_TIMEOUT               = 10 * time.Second
	ADVICE_DEFAULT_MODEL                 = "gpt-4o-mini"
	ADVICE_RECENT_WINDOW                 = 7
	FORECAST_MIN_RECORDS                 = 3
	FORECAST_DEFAULT_DAYS                = 7
	FORECAST_DAILY_TREND                 = 0.02
	AUDIT_LOG_DEFAULT_LIMIT              = 200
	CACHE_TTL_1_MIN                      = 1 * time.Minute
	NOTIFY_TIMEOUT                       = 10 * time.Second
	CACHE_TTL_5_MINS                     = 5 * time.Minute
	LEDGER_LOCK_KEY                      = "lock:ledger"
	SIMULATED_CLASSIFIER_MIN_CONFIDENCE  = 0.75
	SIMULATED_CLASSIFIER_MAX_CONFIDENCE  = 0.95
	DEFAULT_ADVICE_FALLBACK              = "AI service temporarily unavailable. Please try again later."
	DEFAULT_ADVICE_EMPTY_HISTORY         = "Start logging your activities to receive AI-powered sustainability advice."
	DEFAULT_FORECAST_FALLBACK            = "Forecast service temporarily unavailable. Please try again later."
	DEFAULT_FORECAST_NOT_ENOUGH_DATA     = "Not enough data to predict future emissions. Log at least 3 days of activity."
	MESSAGE_PENDING_REDEMPTION_FOR_ADMIN = "New reward redemption awaiting approval\n\nUser: %s\nReward: %s\nPoints: %d\nTransaction: %s"
)

func LockKeyLedger() string {
	return LEDGER_LOCK_KEY
}

func DBKeyRewards() string {
	return "rewards:all"
}

func DBKeyLeaderboard(limit int) string {
	return fmt.Sprintf("leaderboard:%s:%d", LEADERBOARD_POINTS, limit)
}

func LimitKeyClassify(userID string) string {
	return fmt.Sprintf("limit:classify:%s", userID)
}
