package model

// Account is the end user's profile as served by the Keycloak account API.
type Account struct {
	Username      string              `json:"username"`
	FirstName     string              `json:"firstName,omitempty"`
	LastName      string              `json:"lastName,omitempty"`
	Email         string              `json:"email,omitempty"`
	EmailVerified bool                `json:"emailVerified"`
	Attributes    map[string][]string `json:"attributes,omitempty"`
}

// Application is a client the user has access to.
type Application struct {
	ClientID     string `json:"clientId"`
	ClientName   string `json:"clientName,omitempty"`
	Description  string `json:"description,omitempty"`
	EffectiveURL string `json:"effectiveUrl,omitempty"`
	BaseURL      string `json:"baseUrl,omitempty"`
	InUse        bool   `json:"inUse,omitempty"`
	Icon         string `json:"icon"`
}

// SessionClient is a client bound to a user session.
type SessionClient struct {
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName,omitempty"`
}

// Session is an active user session.
type Session struct {
	ID         string          `json:"id"`
	IPAddress  string          `json:"ipAddress"`
	Started    int64           `json:"started"`
	LastAccess int64           `json:"lastAccess"`
	Expires    int64           `json:"expires"`
	Browser    string          `json:"browser,omitempty"`
	Current    bool            `json:"current,omitempty"`
	Clients    []SessionClient `json:"clients,omitempty"`
}

// Event is a Keycloak login event.
type Event struct {
	Time      int64             `json:"time"`
	Type      string            `json:"type"`
	RealmID   string            `json:"realmId,omitempty"`
	ClientID  string            `json:"clientId,omitempty"`
	UserID    string            `json:"userId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Error     string            `json:"error,omitempty"`
	IPAddress string            `json:"ipAddress,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// PropertyLabel pairs a sortable/filterable property with its display label.
type PropertyLabel struct {
	Prop  string `json:"prop"`
	Label string `json:"label"`
}

// ToolbarView is the rendered toolbar state.
type ToolbarView struct {
	SelectableProps []string `json:"selectableProps"`
	SortAscending   bool     `json:"sortAscending"`
	SortBy          string   `json:"sortBy"`
	FilterBy        string   `json:"filterBy"`
	FilterText      string   `json:"filterText"`
	ActiveView      string   `json:"activeView"`
}

// ApplicationsPageView is the applications page view model.
type ApplicationsPageView struct {
	ActiveView   string        `json:"activeView"`
	ResourceURL  string        `json:"resourceUrl"`
	Toolbar      ToolbarView   `json:"toolbar"`
	Applications []Application `json:"applications"`
	Sessions     []Session     `json:"sessions"`
}

// EventsPageView is the events page view model.
type EventsPageView struct {
	FilterLabels []PropertyLabel `json:"filterLabels"`
	SortLabels   []PropertyLabel `json:"sortLabels"`
	Toolbar      ToolbarView     `json:"toolbar"`
	Events       []Event         `json:"events"`
}

// TopNav is the top navigation bar: logout action and optional referrer link.
type TopNav struct {
	ResourceURL string `json:"resourceUrl"`
	LogoutURL   string `json:"logoutUrl"`
	Referrer    string `json:"referrer,omitempty"`
	ReferrerURI string `json:"referrerUri,omitempty"`
}

// Property returns the named field for toolbar filtering and sorting.
func (a Application) Property(name string) any {
	switch name {
	case "clientId":
		return a.ClientID
	case "clientName", "name":
		return a.ClientName
	case "description":
		return a.Description
	case "effectiveUrl":
		return a.EffectiveURL
	case "baseUrl":
		return a.BaseURL
	case "inUse":
		return a.InUse
	case "icon":
		return a.Icon
	}
	return nil
}

// Property returns the named field for toolbar filtering and sorting.
func (e Event) Property(name string) any {
	switch name {
	case "time":
		return e.Time
	case "type":
		return e.Type
	case "realmId":
		return e.RealmID
	case "clientId":
		return e.ClientID
	case "userId":
		return e.UserID
	case "sessionId":
		return e.SessionID
	case "error":
		return e.Error
	case "ipAddress":
		return e.IPAddress
	}
	return nil
}
