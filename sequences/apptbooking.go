package sequences

import (
	"errors"
	"fmt"
	"time"

	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/googlecalendar"
	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// ApptBooking is the appointment scheduling flow's sequence name.
const ApptBooking = "apptbooking"

const appointmentLength = 30 * time.Minute

// ApptBookingContext tracks the rebook offer and the booked slot.
type ApptBookingContext struct {
	RebookReceived  bool   `json:"rebookReceived"`
	RebookConfirmed bool   `json:"rebookConfirmed"`
	RebookDeclined  bool   `json:"rebookDeclined"`
	BookingNumber   string `json:"bookingNumber"`
}

// RegisterAppointmentBooking registers the scheduling flow: confirm whether
// the customer wants to rebook, then book a calendar slot when a date and
// time come through.
func RegisterAppointmentBooking(m Modules) error {
	r := &registrar{m: m}

	r.sequence(&core.Sequence{
		Name:     ApptBooking,
		Activity: "scheduling your appointment",
		BreakIntents: []string{
			"skill.appointment.rebook.rfc.confirm",
			"skill.appointment.book",
		},
		NewContext: func() core.Context { return &ApptBookingContext{} },
		Navigate: func(dc *core.DialogContext) core.Action {
			c, err := apptState(dc)
			if err != nil {
				dc.LogError("apptbooking navigate: %v", err)
				return core.RespondWithText("")
			}
			sess := dc.Session

			if c.RebookReceived && c.RebookConfirmed {
				return core.RespondWithEvent("EscalateToAgent", sess.LastFulfillmentText)
			}
			if c.RebookReceived && c.RebookDeclined {
				return core.RespondWithEvent("AskReasonForContact", sess.LastFulfillmentText)
			}
			if !c.RebookReceived {
				return core.RespondWithEvent("RfcConfirmAppointmentRebook", sess.LastFulfillmentText)
			}

			return core.RespondWithText("")
		},
	})

	r.intent(&core.Intent{
		Action:       "skill.appointment.rebook.rfc.confirm",
		Events:       []string{"RfcConfirmAppointmentRebook"},
		SequenceName: ApptBooking,
		Prompt:       "Just to confirm, you'd like to rebook your appointment?",
		Handler: func(dc *core.DialogContext) error {
			dc.AppendFulfillmentText()
			return nil
		},
	})

	r.intents([]string{
		"skill.appointment.rebook.rfc.confirm.confirmation.yes",
		"skill.appointment.rebook.rfc.confirm.confirmation.able",
	}, ApptBooking, func(dc *core.DialogContext) error {
		c, err := apptState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.RebookReceived = true
		c.RebookConfirmed = true
		c.RebookDeclined = false
		return nil
	})

	r.intents([]string{
		"skill.appointment.rebook.rfc.confirm.confirmation.no",
		"skill.appointment.rebook.rfc.confirm.confirmation.notable",
	}, ApptBooking, func(dc *core.DialogContext) error {
		c, err := apptState(dc)
		if err != nil {
			return err
		}
		dc.SetFulfillmentText()
		c.RebookReceived = true
		c.RebookConfirmed = false
		c.RebookDeclined = true
		if dc.Session.CurrentSequence() == ApptBooking {
			// Popping through the dialog context discards the flow state,
			// so a later booking request starts with a fresh offer.
			return dc.PopSequence(ApptBooking)
		}
		return nil
	})

	r.intent(&core.Intent{
		Action:       "skill.appointment.book",
		SequenceName: ApptBooking,
		Handler:      bookAppointment,
	})

	return r.err
}

// bookAppointment books the requested slot on the scheduling calendar. A
// conflicting slot keeps the flow open so the customer can pick another time.
func bookAppointment(dc *core.DialogContext) error {
	c, err := apptState(dc)
	if err != nil {
		return err
	}
	dc.SetFulfillmentText()

	start, err := time.Parse(time.RFC3339, dc.Slots["dateTime"])
	if err != nil {
		dc.AppendFulfillmentText("I didn't catch the date and time.  When would you like your appointment?")
		return nil
	}

	cal, err := calendarFrom(dc)
	if err != nil {
		return err
	}

	evt, err := cal.CreateEvent(dc.Context, start, start.Add(appointmentLength), "In-person")
	if errors.Is(err, googlecalendar.ErrSlotConflict) {
		dc.AppendFulfillmentText(fmt.Sprintf(
			"I'm sorry, %s is already taken.  Is there another day and time that works for you?",
			start.Format("Monday, January 2 at 3:04 PM")))
		return nil
	}
	if err != nil {
		return fmt.Errorf("book appointment: %w", err)
	}

	c.BookingNumber = evt.ID
	c.RebookReceived = true
	c.RebookDeclined = true
	dc.AppendFulfillmentText(fmt.Sprintf(
		"You're booked for %s.  Your booking reference is %s.",
		start.Format("Monday, January 2 at 3:04 PM"), evt.ID))
	return nil
}

func apptState(dc *core.DialogContext) (*ApptBookingContext, error) {
	c, err := dc.SequenceContext(ApptBooking)
	if err != nil {
		return nil, err
	}
	s, ok := c.(*ApptBookingContext)
	if !ok {
		return nil, fmt.Errorf("sequence %q: unexpected context type %T", ApptBooking, c)
	}
	return s, nil
}
