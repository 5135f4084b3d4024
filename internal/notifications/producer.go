package notifications

import (
	"encoding/json"
	"log"
)

// EventProducer translates domain actions (job posted, application submitted,
// status changed, placement updated) into events and publishes them to the
// broker. Route handlers call it after their database write succeeds;
// publishing failures are logged, never surfaced to the HTTP caller.
type EventProducer struct {
	broker MessageBroker
}

// NewEventProducer creates a new EventProducer that publishes to the given broker.
func NewEventProducer(broker MessageBroker) *EventProducer {
	return &EventProducer{broker: broker}
}

// PublishJobCreated announces a newly posted job. Region and category travel
// in the event metadata so the fan-out can honor workers' alert criteria.
func (p *EventProducer) PublishJobCreated(job interface{}, title, region, category string) {
	payload, _ := json.Marshal(job)
	event := NewEvent(TopicJobCreated, "",
		"משרה חדשה",
		"משרה חדשה פורסמה: "+title,
		payload,
		map[string]string{"region": region, "category": category},
	)
	p.publish(event)
}

// PublishJobClosed announces that a job stopped accepting applications.
func (p *EventProducer) PublishJobClosed(jobID, title string) {
	payload, _ := json.Marshal(map[string]string{"job_id": jobID, "title": title})
	event := NewEvent(TopicJobClosed, "",
		"משרה נסגרה",
		"המשרה "+title+" נסגרה",
		payload, nil,
	)
	p.publish(event)
}

// PublishApplicationCreated notifies the employer that a worker applied to one
// of their jobs.
func (p *EventProducer) PublishApplicationCreated(application interface{}, employerID, jobTitle string) {
	payload, _ := json.Marshal(application)
	event := NewEvent(TopicApplicationCreated, employerID,
		"מועמדות חדשה",
		"התקבלה מועמדות חדשה למשרה "+jobTitle,
		payload, nil,
	)
	p.publish(event)
}

// PublishApplicationStatus notifies the worker that their application status
// changed.
func (p *EventProducer) PublishApplicationStatus(application interface{}, workerID, status, jobTitle string) {
	payload, _ := json.Marshal(application)
	event := NewEvent(TopicApplicationStatus, workerID,
		"עדכון מועמדות",
		"סטטוס המועמדות שלך למשרה "+jobTitle+" עודכן: "+statusLabel(status),
		payload,
		map[string]string{"status": status},
	)
	p.publish(event)
}

// PublishApplicationNotice carries a personal message from an admin to an
// applicant, alongside the application's current status.
func (p *EventProducer) PublishApplicationNotice(workerID, applicationID, jobTitle, status, message string) {
	payload, _ := json.Marshal(map[string]string{
		"application_id": applicationID,
		"job_title":      jobTitle,
		"status":         status,
		"message":        message,
	})
	event := NewEvent(TopicApplicationNotice, workerID,
		"הודעה על מועמדות",
		message,
		payload,
		map[string]string{"status": status},
	)
	p.publish(event)
}

// PublishPlacementUpdated announces a placement change. WorkerID receives a
// personal notification; admins get the update via role broadcast.
func (p *EventProducer) PublishPlacementUpdated(placement interface{}, workerID, status string) {
	payload, _ := json.Marshal(placement)
	event := NewEvent(TopicPlacementUpdated, workerID,
		"עדכון השמה",
		"ההשמה שלך עודכנה: "+statusLabel(status),
		payload,
		map[string]string{"status": status},
	)
	p.publish(event)
}

func (p *EventProducer) publish(event Event) {
	if err := p.broker.Publish(event.Topic, event); err != nil {
		log.Printf("notifications: failed to publish %s event: %v", event.Topic, err)
	}
}

// statusLabel maps internal status values to the Hebrew label shown to users.
func statusLabel(status string) string {
	switch status {
	case "pending":
		return "ממתין"
	case "reviewed":
		return "נבדק"
	case "accepted":
		return "התקבל"
	case "rejected":
		return "נדחה"
	case "active":
		return "פעיל"
	case "completed":
		return "הושלם"
	case "cancelled":
		return "בוטל"
	default:
		return status
	}
}
