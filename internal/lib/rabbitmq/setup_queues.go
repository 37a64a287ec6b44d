package rabbitmq

// SubscriptionsExchange — exchange для событий жизненного цикла подписок.
const SubscriptionsExchange = "subscriptions"

// Маршрутные ключи событий подписки.
const (
	RoutingKeyChanged   = "changed"   // Пользователь сменил план
	RoutingKeyCancelled = "cancelled" // Пользователь отменил подписку
	RoutingKeyExpired   = "expired"   // Ленивое пересогласование сбросило истёкшую подписку
)

// QueueConfig описывает очередь и её привязку к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetSubscriptionQueues возвращает очереди событий подписки,
// объявляемые при старте сервиса.
func GetSubscriptionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "subscription.changed", RoutingKey: RoutingKeyChanged},
		{QueueName: "subscription.cancelled", RoutingKey: RoutingKeyCancelled},
		{QueueName: "subscription.expired", RoutingKey: RoutingKeyExpired},
	}
}
