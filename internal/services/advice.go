package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ecoverse/internal/pkg"
	"ecoverse/internal/pkg/logging"

	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/rs/zerolog"
	"github.com/samber/do"
)

const (
	advicePrompt = `You are a sustainability AI assistant.

User's recent average daily carbon emission: %.2f kg CO2.

Give:
1. A clear assessment of the user's carbon behavior
2. 3 practical improvement suggestions
3. A short motivational message

Keep it simple, student-friendly, and actionable.`

	forecastPrompt = `You are an environmental data analyst AI.

User's recent daily CO2 emissions (kg):
%s

Average: %.2f kg/day

Predict:
1. Expected average daily CO2 for next 7 days
2. Whether emissions are increasing, stable, or decreasing
3. One early warning or encouragement message`
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ServiceAdvice talks to an OpenAI compatible chat endpoint. Its answers are
// advisory: every failure degrades to a fixed message and is never returned.
type ServiceAdvice struct {
	container *do.Injector
	client    *httpclient.Client
	url       string
	key       string
	model     string
	log       zerolog.Logger
}

func NewServiceAdvice(container *do.Injector) (*ServiceAdvice, error) {
	config, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(config.GetDurationSecondsConfig(CONFIG_ADVICE_TIMEOUT_SECOND, ADVICE_DEFAULT_TIMEOUT)),
		httpclient.WithRetryCount(0),
	)

	return &ServiceAdvice{
		container: container,
		client:    client,
		url:       config.GetStringConfig(CONFIG_ADVICE_API_URL, ""),
		key:       config.GetStringConfig(CONFIG_ADVICE_API_KEY, ""),
		model:     config.GetStringConfig(CONFIG_ADVICE_MODEL, ADVICE_DEFAULT_MODEL),
		log:       logging.Component("advice"),
	}, nil
}

// GetAdvice returns sustainability advice for the user's recent footprints.
func (service *ServiceAdvice) GetAdvice(ctx context.Context, recentCO2 []float64) string {
	if len(recentCO2) == 0 {
		return DEFAULT_ADVICE_EMPTY_HISTORY
	}

	recent := lastN(recentCO2, ADVICE_RECENT_WINDOW)
	text, err := service.complete(ctx, fmt.Sprintf(advicePrompt, average(recent)), 0.6, 200)
	if err != nil {
		service.log.Warn().Err(err).Msg("advice fallback")
		return DEFAULT_ADVICE_FALLBACK
	}
	return text
}

// ForecastText asks the chat endpoint for a narrative forecast.
func (service *ServiceAdvice) ForecastText(ctx context.Context, recentCO2 []float64) string {
	if len(recentCO2) < FORECAST_MIN_RECORDS {
		return DEFAULT_FORECAST_NOT_ENOUGH_DATA
	}

	recent := lastN(recentCO2, ADVICE_RECENT_WINDOW)
	values := make([]string, 0, len(recent))
	for _, v := range recent {
		values = append(values, fmt.Sprintf("%.2f", v))
	}

	prompt := fmt.Sprintf(forecastPrompt, "["+strings.Join(values, ", ")+"]", average(recent))
	text, err := service.complete(ctx, prompt, 0.4, 180)
	if err != nil {
		service.log.Warn().Err(err).Msg("forecast fallback")
		return DEFAULT_FORECAST_FALLBACK
	}
	return text
}

// Forecast projects the average of the last 7 footprints forward with a 2%
// daily upward trend. It returns nil for fewer than 3 footprints.
func Forecast(recentCO2 []float64, days int) []float64 {
	if len(recentCO2) < FORECAST_MIN_RECORDS || days <= 0 {
		return nil
	}

	avg := average(lastN(recentCO2, ADVICE_RECENT_WINDOW))
	predictions := make([]float64, 0, days)
	for i := 0; i < days; i++ {
		predictions = append(predictions, pkg.Round(avg*(1+float64(i)*FORECAST_DAILY_TREND), 2))
	}
	return predictions
}

func (service *ServiceAdvice) complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if service.url == "" {
		return "", fmt.Errorf("%w: no endpoint configured", ErrAdvisoryUnavailable)
	}

	body, err := json.Marshal(chatRequest{
		Model:       service.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, service.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAdvisoryUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if service.key != "" {
		req.Header.Set("Authorization", "Bearer "+service.key)
	}

	resp, err := service.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAdvisoryUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		//nolint:errcheck
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", ErrAdvisoryUnavailable, resp.StatusCode)
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAdvisoryUnavailable, err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", ErrAdvisoryUnavailable, errors.New("empty completion"))
	}

	text := strings.TrimSpace(decoded.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: %w", ErrAdvisoryUnavailable, errors.New("empty completion"))
	}
	return text, nil
}

func lastN(values []float64, n int) []float64 {
	if len(values) > n {
		return values[len(values)-n:]
	}
	return values
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
