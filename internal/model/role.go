package model

// Role represents a Keycloak realm or client role.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Composite   bool   `json:"composite"`
	ClientRole  bool   `json:"clientRole"`
	ContainerID string `json:"containerId,omitempty"`
}

// ClientRef identifies a Keycloak client. ID is the internal id used in
// admin API paths, ClientID the public identifier.
type ClientRef struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId"`
	Name     string `json:"name,omitempty"`
}

// RoleSelectorView is the state of the role selector dialog.
type RoleSelectorView struct {
	State          string      `json:"state"`
	RealmRoles     []Role      `json:"realmRoles"`
	Clients        []ClientRef `json:"clients"`
	SelectedClient *ClientRef  `json:"selectedClient,omitempty"`
	ClientRoles    []Role      `json:"clientRoles"`
}

// RoleSelectionRequest is the payload for writing a selected role into a
// provider configuration entry. Exactly one of RealmRole or ClientRole is
// set unless Cancel is true.
type RoleSelectionRequest struct {
	Config     map[string]string `json:"config"`
	ConfigName string            `json:"configName"`
	RealmRole  string            `json:"realmRole,omitempty"`
	ClientID   string            `json:"client,omitempty"`
	ClientRole string            `json:"clientRole,omitempty"`
	Cancel     bool              `json:"cancel,omitempty"`
}

// RoleSelectionResponse carries the provider configuration after selection.
type RoleSelectionResponse struct {
	State  string            `json:"state"`
	Config map[string]string `json:"config"`
}
