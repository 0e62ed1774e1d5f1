package services

import "github.com/samber/do"

// ProvideServices registers every service constructor. Infrastructure
// (Store, Locker, Cache and the optional Limiter, Notifier, Clock and
// Classifier) must be provided by the caller.
func ProvideServices(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ServiceConfig, error) {
		return NewServiceConfig(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceLedger, error) {
		return NewServiceLedger(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceBadge, error) {
		return NewServiceBadge(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceActivity, error) {
		return NewServiceActivity(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceRedemption, error) {
		return NewServiceRedemption(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceCatalog, error) {
		return NewServiceCatalog(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceAdvice, error) {
		return NewServiceAdvice(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceLeaderboard, error) {
		return NewServiceLeaderboard(i)
	})

	do.Provide(injector, func(i *do.Injector) (*ServiceDashboard, error) {
		return NewServiceDashboard(i)
	})
}
