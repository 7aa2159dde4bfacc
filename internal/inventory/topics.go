package inventory

const (
	TopicMedicineRequested = "medicine.requested"
	TopicLotRecalled       = "lot.recalled"
	TopicOrderCreated      = "order.created"
	TopicNotification      = "notification.dispatch"
	TopicRecallAdvisory    = "recall.advisory"
)

// Partition key = record id, so all events for one lot/order stay ordered.
func PartitionKey(recordID string) []byte { return []byte(recordID) }
