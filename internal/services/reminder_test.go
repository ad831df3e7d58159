package services

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dentaheal/booking-api/internal/models"
	"github.com/dentaheal/booking-api/internal/scheduler"
)

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string // html bodies
	subjs []string
}

func (f *fakeMailer) Send(subject, html string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjs = append(f.subjs, subject)
	f.sent = append(f.sent, html)
	return "<test@dentaheal>", nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func newTestReminder() (*ReminderService, *fakeMailer, *clock.Mock) {
	mock := clock.NewMock()
	mailer := &fakeMailer{}
	svc := NewReminderService(scheduler.NewWithClock(mock), mailer, zerolog.Nop())
	return svc, mailer, mock
}

func booking(appt time.Time) models.Booking {
	return models.Booking{
		ID:       primitive.NewObjectID(),
		User:     primitive.NewObjectID(),
		Dentist:  primitive.NewObjectID(),
		ApptDate: appt,
	}
}

func TestReminderAtIsSevenHoursBefore(t *testing.T) {
	appt := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	want := time.Date(2026, 9, 1, 7, 0, 0, 0, time.UTC)
	if got := ReminderAt(appt); !got.Equal(want) {
		t.Fatalf("ReminderAt = %v, want %v", got, want)
	}
}

func TestReminderFiresSevenHoursBeforeAppointment(t *testing.T) {
	svc, mailer, mock := newTestReminder()

	b := booking(mock.Now().Add(10 * time.Hour))
	svc.Schedule(b.User.Hex(), b)

	mock.Add(3*time.Hour - time.Second)
	if mailer.count() != 0 {
		t.Fatal("reminder sent early")
	}

	mock.Add(time.Second)
	if mailer.count() != 1 {
		t.Fatalf("sent %d reminders, want 1", mailer.count())
	}
	if !strings.Contains(mailer.sent[0], b.Dentist.Hex()) {
		t.Fatal("reminder body missing dentist reference")
	}
	if mailer.subjs[0] != "Appointment Reminder" {
		t.Fatalf("subject = %q", mailer.subjs[0])
	}
}

func TestRescheduleDropsOldReminder(t *testing.T) {
	svc, mailer, mock := newTestReminder()

	key := primitive.NewObjectID().Hex()
	svc.Schedule(key, booking(mock.Now().Add(8*time.Hour)))
	svc.Schedule(key, booking(mock.Now().Add(20*time.Hour)))

	// The first reminder's send time passes silently.
	mock.Add(2 * time.Hour)
	if mailer.count() != 0 {
		t.Fatal("replaced reminder fired")
	}

	mock.Add(11 * time.Hour)
	if mailer.count() != 1 {
		t.Fatalf("sent %d reminders, want 1", mailer.count())
	}
}

func TestCancelStopsReminder(t *testing.T) {
	svc, mailer, mock := newTestReminder()

	key := primitive.NewObjectID().Hex()
	svc.Schedule(key, booking(mock.Now().Add(10*time.Hour)))
	svc.Cancel(key)

	mock.Add(24 * time.Hour)
	if mailer.count() != 0 {
		t.Fatal("cancelled reminder fired")
	}
}

func TestPastAppointmentGetsNoReminder(t *testing.T) {
	svc, mailer, mock := newTestReminder()

	// Appointment is sooner than the lead time, so the send time is in
	// the past.
	svc.Schedule("u1", booking(mock.Now().Add(time.Hour)))
	mock.Add(48 * time.Hour)
	if mailer.count() != 0 {
		t.Fatal("reminder fired for a past send time")
	}
}
