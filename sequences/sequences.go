package sequences

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/googlecalendar"
	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/jds"
	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/redmine"
	"github.com/jusranda/cctsa-wxccdemobot-commons/connectors/webexconnect"
	"github.com/jusranda/cctsa-wxccdemobot-commons/core"
)

// DefaultCaseBaseURL is the ticket-viewer URL prefix used in journey events
// when no override is configured.
const DefaultCaseBaseURL = "http://cctsa-redmine.outofservice.org/issues/"

// Modules bundles the registries the flow modules register themselves
// against, plus flow-level configuration.
type Modules struct {
	Sequences *core.SequenceRegistry
	Intents   *core.IntentRegistry
	Cases     *core.CaseTemplates

	// CaseBaseURL prefixes ticket ids when a case link is embedded in a
	// journey event. Defaults to DefaultCaseBaseURL.
	CaseBaseURL string
}

func (m Modules) caseURL(issueID int) string {
	base := m.CaseBaseURL
	if base == "" {
		base = DefaultCaseBaseURL
	}
	return base + strconv.Itoa(issueID)
}

// RegisterAll registers every flow module. Registration order matters: it is
// the scan order for break-intent and cross-sequence intent resolution.
func RegisterAll(m Modules) error {
	if m.Sequences == nil || m.Intents == nil || m.Cases == nil {
		return fmt.Errorf("sequences: all registries are required")
	}
	for _, register := range []func(Modules) error{
		RegisterCommon,
		RegisterWelcome,
		RegisterAuthentication,
		RegisterReasonForContact,
		RegisterPasswordReset,
		RegisterCovidScreen,
		RegisterAppointmentBooking,
	} {
		if err := register(m); err != nil {
			return err
		}
	}
	return nil
}

// registrar accumulates the first registration error so module register
// functions read as flat declaration lists.
type registrar struct {
	m   Modules
	err error
}

func (r *registrar) sequence(seq *core.Sequence) {
	if r.err == nil {
		r.err = r.m.Sequences.Register(seq)
	}
}

func (r *registrar) intent(in *core.Intent) {
	if r.err == nil {
		r.err = r.m.Intents.Register(in)
	}
}

func (r *registrar) intents(actions []string, sequenceName string, handler core.IntentHandler) {
	if r.err == nil {
		r.err = r.m.Intents.RegisterAll(actions, sequenceName, handler)
	}
}

func (r *registrar) caseTemplate(sequenceName string, tmpl core.CaseTemplate) {
	if r.err == nil {
		r.err = r.m.Cases.Register(sequenceName, tmpl)
	}
}

// Connector accessors. Handlers fail loudly when a flow needs a connector
// that was never registered; the engine surfaces the error to the caller.

func redmineFrom(dc *core.DialogContext) (*redmine.Connector, error) {
	conn, err := dc.Connector(redmine.Name)
	if err != nil {
		return nil, err
	}
	rm, ok := conn.(*redmine.Connector)
	if !ok {
		return nil, fmt.Errorf("connector %q: unexpected type %T", redmine.Name, conn)
	}
	return rm, nil
}

func webexConnectFrom(dc *core.DialogContext) (*webexconnect.Connector, error) {
	conn, err := dc.Connector(webexconnect.Name)
	if err != nil {
		return nil, err
	}
	wc, ok := conn.(*webexconnect.Connector)
	if !ok {
		return nil, fmt.Errorf("connector %q: unexpected type %T", webexconnect.Name, conn)
	}
	return wc, nil
}

func calendarFrom(dc *core.DialogContext) (*googlecalendar.Connector, error) {
	conn, err := dc.Connector(googlecalendar.Name)
	if err != nil {
		return nil, err
	}
	gc, ok := conn.(*googlecalendar.Connector)
	if !ok {
		return nil, fmt.Errorf("connector %q: unexpected type %T", googlecalendar.Name, conn)
	}
	return gc, nil
}

// injectJourneyEvent records a customer-journey touchpoint. Journey logging
// is best-effort: a missing connector or a failed injection is logged and
// never fails the turn that produced it.
func injectJourneyEvent(dc *core.DialogContext, origin string, dataParams map[string]any) {
	conn, err := dc.Connector(jds.Name)
	if err != nil {
		dc.LogDebug("journey logging disabled: %v", err)
		return
	}
	j, ok := conn.(*jds.Connector)
	if !ok {
		dc.LogWarn("connector %q: unexpected type %T", jds.Name, conn)
		return
	}

	sess := dc.Session
	err = j.InjectEvent(dc.Context, sess.InteractionID, jds.EventPayload{
		Person: jds.Person{
			FirstName:     sess.CustomerFirstName,
			LastName:      sess.CustomerLastName,
			Phone:         sess.SmsNumber,
			Email:         sess.Mail,
			IdentityAlias: sess.IdentityAlias,
		},
		Origin:      origin,
		ChannelType: jds.ChannelType(sess.Channel),
		DataParams:  dataParams,
	})
	if err != nil {
		dc.LogWarn("inject journey event %q: %v", origin, err)
	}
}

// openCase builds the case template registered for sequenceName, opens the
// ticket and records its id on the session.
func openCase(dc *core.DialogContext, sequenceName string) (int, error) {
	tmpl, ok := dc.Cases.Build(dc, sequenceName)
	if !ok {
		return 0, fmt.Errorf("no case template registered for %q", sequenceName)
	}

	rm, err := redmineFrom(dc)
	if err != nil {
		return 0, err
	}

	sess := dc.Session
	issueID, err := rm.CreateIssue(dc.Context, redmine.NewIssue{
		Subject:       tmpl.Subject,
		Description:   tmpl.Description,
		AccountNumber: sess.CustomerAccountID,
		Source:        sess.InteractionSource,
		InitiatorID:   sess.IdentityAlias,
		TrackerID:     tmpl.TrackerID,
		StatusID:      tmpl.StatusID,
		PriorityID:    tmpl.PriorityID,
	})
	if err != nil {
		return 0, err
	}

	if tmpl.Note != "" {
		if err := rm.UpdateIssueNotes(dc.Context, issueID, tmpl.Note, false); err != nil {
			dc.LogWarn("annotate issue %d: %v", issueID, err)
		}
	}

	sess.TicketNumber = strconv.Itoa(issueID)
	sess.OpenCaseID = sess.TicketNumber
	return issueID, nil
}

// splitSlotList parses a comma-separated recognizer slot into a clean list.
func splitSlotList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
