// Package metrics содержит счётчики Prometheus для решений о доступе к книгам.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// AccessDecisions считает решения оценщика доступа по результату:
// granted, already_granted или denied.
var AccessDecisions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ebookstore_access_decisions_total",
		Help: "Access evaluator decisions by outcome.",
	},
	[]string{"outcome"},
)

// SubscriptionExpirations считает ленивые сбросы истёкших подписок.
var SubscriptionExpirations = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "ebookstore_subscription_expirations_total",
		Help: "Subscriptions lazily downgraded to the free tier.",
	},
)
