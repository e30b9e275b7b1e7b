package core

import (
	"fmt"
	"sync"
)

// Case is the ticket template a flow supplies when it opens or annotates an
// issue in the ticketing system. Zero-valued ids are left to the ticketing
// connector's defaults.
type Case struct {
	Subject     string
	Description string
	Note        string
	TrackerID   int
	StatusID    int
	PriorityID  int
}

// CaseTemplate builds a Case from the current dialog state.
type CaseTemplate func(dc *DialogContext) Case

// CaseTemplates is the per-sequence registry of ticket templates, consulted
// whenever a flow must open a ticket.
type CaseTemplates struct {
	mu        sync.RWMutex
	templates map[string]CaseTemplate
}

// NewCaseTemplates constructs an empty template registry.
func NewCaseTemplates() *CaseTemplates {
	return &CaseTemplates{templates: make(map[string]CaseTemplate)}
}

// Register binds a template to a sequence name. A second registration for
// the same sequence is rejected.
func (t *CaseTemplates) Register(sequenceName string, tmpl CaseTemplate) error {
	if tmpl == nil {
		return fmt.Errorf("case template for %q must not be nil", sequenceName)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.templates[sequenceName]; ok {
		return fmt.Errorf("case template for %q already registered", sequenceName)
	}
	t.templates[sequenceName] = tmpl
	return nil
}

// Build runs the template registered for sequenceName. The boolean reports
// whether a template exists.
func (t *CaseTemplates) Build(dc *DialogContext, sequenceName string) (Case, bool) {
	t.mu.RLock()
	tmpl, ok := t.templates[sequenceName]
	t.mu.RUnlock()
	if !ok {
		return Case{}, false
	}
	return tmpl(dc), true
}
