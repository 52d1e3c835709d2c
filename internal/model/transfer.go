package model

// ImportRecord is one line of a partial import result.
type ImportRecord struct {
	Action       string `json:"action"`
	ResourceType string `json:"resourceType"`
	ResourceName string `json:"resourceName"`
	ID           string `json:"id,omitempty"`
}

// ImportResult is the partialImport endpoint response.
type ImportResult struct {
	Added       int            `json:"added"`
	Skipped     int            `json:"skipped"`
	Overwritten int            `json:"overwritten"`
	Results     []ImportRecord `json:"results,omitempty"`
}

// CategoryPreview reports one importable category of an uploaded file.
type CategoryPreview struct {
	Category string `json:"category"`
	Present  bool   `json:"present"`
	Count    int    `json:"count"`
	Enabled  bool   `json:"enabled"`
}

// ImportPreview describes an uploaded realm export before submission.
type ImportPreview struct {
	SessionID  string            `json:"sessionId"`
	FileRealm  string            `json:"fileRealm,omitempty"`
	MultiRealm bool              `json:"multiRealm"`
	Changed    bool              `json:"changed"`
	Policy     string            `json:"ifResourceExists"`
	Skip       bool              `json:"skip"`
	Overwrite  bool              `json:"overwrite"`
	Categories []CategoryPreview `json:"categories"`
}

// ImportOptionsRequest updates category toggles and the collision policy.
// Skip and Overwrite are the two-flag view of the same policy.
type ImportOptionsRequest struct {
	Toggles   map[string]bool `json:"toggles,omitempty"`
	Policy    *string         `json:"ifResourceExists,omitempty"`
	Skip      *bool           `json:"skip,omitempty"`
	Overwrite *bool           `json:"overwrite,omitempty"`
}

// ImportResponse is returned after a submitted import.
type ImportResponse struct {
	Notification Notification  `json:"notification"`
	Result       *ImportResult `json:"result,omitempty"`
}

// SectionImportRequest is the payload of the per-section import endpoint.
type SectionImportRequest struct {
	Document map[string]any `json:"document"`
	Policy   string         `json:"ifResourceExists,omitempty"`
}

// NotificationResponse reports the outcome of a console action that has no
// other payload, or of one that failed.
type NotificationResponse struct {
	Notification Notification `json:"notification"`
	Code         string       `json:"code,omitempty"`
}

// ServerExportRequest is the payload of the server export endpoint. A nil
// Search falls back to the caller's latest user search.
type ServerExportRequest struct {
	FileName  string  `json:"fileName,omitempty"`
	Condensed bool    `json:"condensed,omitempty"`
	Search    *string `json:"search,omitempty"`
}

// SectionInfo describes an exportable section to the console.
type SectionInfo struct {
	Name            string `json:"name"`
	DisplayName     string `json:"displayName"`
	PropertyName    string `json:"propertyName"`
	DefaultFileName string `json:"defaultFileName"`
	SearchEnabled   bool   `json:"searchEnabled"`
}
