package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/do"
)

// ServiceConfig reads tunables from the named "envs" map in the container.
type ServiceConfig struct {
	container *do.Injector
	envs      map[string]string
}

func NewServiceConfig(container *do.Injector) (*ServiceConfig, error) {
	envs, err := do.InvokeNamed[map[string]string](container, "envs")
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{container, envs}, nil
}

func (service *ServiceConfig) GetStringConfig(key string, defaultValue string) string {
	value := strings.TrimSpace(service.envs[key])
	if value == "" {
		return defaultValue
	}
	return value
}

func (service *ServiceConfig) GetIntConfig(key string, defaultValue int) int {
	value := service.GetStringConfig(key, "")
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func (service *ServiceConfig) GetDurationSecondsConfig(key string, defaultValue time.Duration) time.Duration {
	seconds := service.GetIntConfig(key, 0)
	if seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
