package enums

// OutboxEventType names the domain events emitted via the outbox.
type OutboxEventType string

const (
	EventBasketGenerated OutboxEventType = "basket.generated"
	EventBasketAccepted  OutboxEventType = "basket.accepted"
	EventCatalogSynced   OutboxEventType = "catalog.synced"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregatePredictedBasket OutboxAggregateType = "predicted_basket"
	AggregateCatalog         OutboxAggregateType = "catalog"
)
