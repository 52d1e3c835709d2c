package account

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/model"
	"github.com/derhornspieler/rke2-cluster/operators/realm-console/internal/toolbar"
)

// DefaultIcon is used for applications whose description names no icon.
const DefaultIcon = "pficon-key"

const iconMarker = "//icon="

// ApplicationProps are the sortable and filterable application properties.
var ApplicationProps = []string{"clientId", "clientName", "description"}

// ApplicationIcon returns the icon named after "//icon=" in description,
// or DefaultIcon.
func ApplicationIcon(description string) string {
	if i := strings.Index(description, iconMarker); i >= 0 {
		return description[i+len(iconMarker):]
	}
	return DefaultIcon
}

// ApplicationsPage lists the user's applications and sessions.
type ApplicationsPage struct {
	backend     Backend
	caller      Caller
	logger      *zap.Logger
	resourceURL string

	mu           sync.Mutex
	applications []model.Application
	sessions     []model.Session

	Toolbar *toolbar.Toolbar
}

// NewApplicationsPage returns an empty page in LargeCards view.
func NewApplicationsPage(backend Backend, caller Caller, logger *zap.Logger, resourceURL string) *ApplicationsPage {
	return &ApplicationsPage{
		backend:      backend,
		caller:       caller,
		logger:       logger,
		resourceURL:  resourceURL,
		applications: []model.Application{},
		sessions:     []model.Session{},
		Toolbar:      toolbar.New(ApplicationProps),
	}
}

// Load issues the applications and sessions requests concurrently. Each
// collection is replaced as soon as its own response arrives, so a failure
// of one leaves the other intact.
func (p *ApplicationsPage) Load(ctx context.Context) error {
	var (
		wg      sync.WaitGroup
		appsErr error
		sessErr error
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		apps, err := p.backend.GetApplications(ctx, p.caller.Token, p.caller.Realm)
		if err != nil {
			appsErr = err
			p.logger.Warn("loading applications failed", zap.Error(err))
			return
		}
		p.setApplications(apps)
	}()

	go func() {
		defer wg.Done()
		sessions, err := p.backend.GetSessions(ctx, p.caller.Token, p.caller.Realm)
		if err != nil {
			sessErr = err
			p.logger.Warn("loading sessions failed", zap.Error(err))
			return
		}
		p.setSessions(sessions)
	}()

	wg.Wait()
	return errors.Join(appsErr, sessErr)
}

func (p *ApplicationsPage) setApplications(apps []model.Application) {
	out := make([]model.Application, len(apps))
	for i, a := range apps {
		a.Icon = ApplicationIcon(a.Description)
		out[i] = a
	}

	p.mu.Lock()
	p.applications = out
	p.mu.Unlock()
}

func (p *ApplicationsPage) setSessions(sessions []model.Session) {
	if sessions == nil {
		sessions = []model.Session{}
	}
	p.mu.Lock()
	p.sessions = sessions
	p.mu.Unlock()
}

// View renders the page with the toolbar applied to the applications.
func (p *ApplicationsPage) View() model.ApplicationsPageView {
	p.mu.Lock()
	defer p.mu.Unlock()

	return model.ApplicationsPageView{
		ActiveView:   p.Toolbar.ActiveView,
		ResourceURL:  p.resourceURL,
		Toolbar:      p.Toolbar.View(),
		Applications: toolbar.Apply(p.Toolbar, p.applications),
		Sessions:     p.sessions,
	}
}
