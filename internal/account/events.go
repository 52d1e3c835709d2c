package account

import (
	"context"
	"fmt"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/toolbar"
)

var (
	// EventFilterLabels are the filterable event properties.
	EventFilterLabels = []model.PropertyLabel{
		{Prop: "type", Label: "Type"},
		{Prop: "clientId", Label: "Application"},
	}
	// EventSortLabels are the sortable event properties.
	EventSortLabels = []model.PropertyLabel{
		{Prop: "time", Label: "Time/Date"},
		{Prop: "clientId", Label: "Application"},
	}
)

// EventsPage lists the user's recent events.
type EventsPage struct {
	backend Backend
	caller  Caller
	events  []model.Event

	Toolbar *toolbar.Toolbar
}

// NewEventsPage returns an empty events page sorted by time.
func NewEventsPage(backend Backend, caller Caller) *EventsPage {
	tb := toolbar.New(props(EventSortLabels))
	tb.FilterBy = EventFilterLabels[0].Prop
	return &EventsPage{
		backend: backend,
		caller:  caller,
		events:  []model.Event{},
		Toolbar: tb,
	}
}

// Refresh re-fetches the events and replaces the list wholesale. On error
// the previous list is kept.
func (p *EventsPage) Refresh(ctx context.Context) error {
	events, err := p.backend.GetEvents(ctx, p.caller.Token, p.caller.Realm)
	if err != nil {
		return fmt.Errorf("loading events: %w", err)
	}
	if events == nil {
		events = []model.Event{}
	}
	p.events = events
	return nil
}

// View renders the page with the toolbar applied to the events.
func (p *EventsPage) View() model.EventsPageView {
	return model.EventsPageView{
		FilterLabels: EventFilterLabels,
		SortLabels:   EventSortLabels,
		Toolbar:      p.Toolbar.View(),
		Events:       toolbar.Apply(p.Toolbar, p.events),
	}
}

func props(labels []model.PropertyLabel) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.Prop
	}
	return out
}
