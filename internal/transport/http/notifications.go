package http

import (
	"context"
	"net/http"

	"github.com/eventsphere/event-service/internal/notify"
)

// ReminderSender is the minimal interface needed to dispatch reminders.
type ReminderSender interface {
	Send(ctx context.Context, r notify.Reminder) (notify.Receipt, error)
}

// HandleReminders serves POST /notifications/reminders.
func HandleReminders(svc ReminderSender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}

		var req reminderRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		receipt, err := svc.Send(r.Context(), notify.Reminder{
			Subject:     req.Subject,
			Message:     req.Message,
			PhoneNumber: req.PhoneNumber,
			TopicArn:    req.TopicArn,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, reminderResponse{
			Message:  "Reminder dispatched",
			Metadata: receipt,
		})
	}
}

type reminderRequest struct {
	Subject     string `json:"subject"`
	Message     string `json:"message"`
	PhoneNumber string `json:"phoneNumber"`
	TopicArn    string `json:"topicArn"`
}

type reminderResponse struct {
	Message  string         `json:"message"`
	Metadata notify.Receipt `json:"metadata"`
}
