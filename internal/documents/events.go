package documents

import "docflow-backend/internal/events"

// PublishUpdated emits a document_updated event carrying the full
// document snapshot.
func PublishUpdated(hub *events.Hub, doc Document) {
	if hub == nil {
		return
	}
	hub.Publish(events.Event{
		Name:       events.EventDocumentUpdated,
		DocumentID: doc.ID,
		Payload:    ToResponse(doc),
	})
}

// PublishDeleted emits a document_deleted event carrying only the id.
func PublishDeleted(hub *events.Hub, id string) {
	if hub == nil {
		return
	}
	hub.Publish(events.Event{
		Name:       events.EventDocumentDeleted,
		DocumentID: id,
	})
}
