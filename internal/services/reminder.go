package services

import (
	"bytes"
	"html/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/dentaheal/booking-api/internal/models"
	"github.com/dentaheal/booking-api/internal/scheduler"
)

// ReminderLead is how long before the appointment the reminder goes out.
const ReminderLead = 7 * time.Hour

var reminderTmpl = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Appointment Reminder</title>
    <style>
        body { font-family: Arial, sans-serif; background-color: #f7f7f7; padding: 20px; text-align: center; }
        .container { max-width: 600px; margin: 0 auto; background-color: #fff; border-radius: 8px; padding: 20px; box-shadow: 0 0 10px rgba(0, 0, 0, 0.1); }
        h1 { color: #333; }
        p { font-size: 18px; color: #555; margin: 10px 0; }
        .appointment-info { border-top: 1px solid #ccc; padding-top: 15px; margin-top: 15px; }
        .appointment-info p { margin: 8px 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Appointment Reminder</h1>
        <p>You have an appointment with your dentist tomorrow!</p>
        <div class="appointment-info">
            <p><strong>Date &amp; Time:</strong> {{.ApptDate}}</p>
            <p><strong>Dentist:</strong> {{.Dentist.Hex}}</p>
        </div>
    </div>
</body>
</html>
`))

// ReminderService arranges one reminder email per job key, ReminderLead
// before the appointment. The key is the acting user's id, so a user has at
// most one live reminder at a time.
type ReminderService struct {
	sched  scheduler.Scheduler
	mailer Mailer
	log    zerolog.Logger
}

func NewReminderService(sched scheduler.Scheduler, mailer Mailer, log zerolog.Logger) *ReminderService {
	return &ReminderService{sched: sched, mailer: mailer, log: log}
}

// ReminderAt is the send time for a booking's reminder.
func ReminderAt(apptDate time.Time) time.Time {
	return apptDate.Add(-ReminderLead)
}

// Schedule arranges the reminder for booking under key, replacing any
// reminder already pending for that key.
func (s *ReminderService) Schedule(key string, booking models.Booking) {
	at := ReminderAt(booking.ApptDate)
	if !s.sched.Schedule(key, at, func() { s.sendReminder(booking) }) {
		s.log.Warn().
			Str("key", key).
			Time("reminderAt", at).
			Msg("reminder time already passed, not scheduling")
		return
	}
	s.log.Info().
		Str("key", key).
		Str("booking", booking.ID.Hex()).
		Time("reminderAt", at).
		Msg("reminder scheduled")
}

// Cancel drops the pending reminder for key, if any.
func (s *ReminderService) Cancel(key string) {
	s.sched.Cancel(key)
}

func (s *ReminderService) sendReminder(booking models.Booking) {
	var body bytes.Buffer
	if err := reminderTmpl.Execute(&body, booking); err != nil {
		s.log.Error().Err(err).Str("booking", booking.ID.Hex()).Msg("render reminder")
		return
	}

	messageID, err := s.mailer.Send("Appointment Reminder", body.String())
	if err != nil {
		s.log.Error().Err(err).Str("booking", booking.ID.Hex()).Msg("send reminder")
		return
	}
	s.log.Info().Str("messageId", messageID).Msg("reminder sent")
}
