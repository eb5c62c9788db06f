package storcycle

// tokenRequest is the login payload for POST /openapi/tokens.
type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse is the login response; only the token field matters.
type tokenResponse struct {
	Token string `json:"token"`
}

// JobStatusEntry is one job row as returned by the jobStatus endpoint.
type JobStatusEntry struct {
	Job             string   `json:"job"`
	State           string   `json:"state"`
	PercentComplete float64  `json:"percentComplete"`
	Start           string   `json:"start"`
	Completion      string   `json:"completion"`
	TotalFiles      int64    `json:"totalFiles"`
	Categories      []string `json:"categories,omitempty"`
}

// jobStatusPage is one page of the paginated jobStatus listing. The endpoint
// reports OpenAPI-style pagination fields alongside the data envelope.
type jobStatusPage struct {
	ResultLimit  int              `json:"ResultLimit"`
	ResultOffset *int             `json:"ResultOffset"`
	TotalResults int              `json:"TotalResults"`
	Data         []JobStatusEntry `json:"data"`
}

// Project is a StorCycle project (dataset) object.
type Project struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Share            string   `json:"share"`
	ProjectType      string   `json:"projectType"`
	WorkingDirectory string   `json:"workingDirectory"`
	Targets          []string `json:"targets"`
	Active           bool     `json:"active"`
	Enabled          bool     `json:"enabled"`
}

// archiveProjectRequest is the payload for PUT /openapi/projects/archive/{name}.
type archiveProjectRequest struct {
	Description       string               `json:"description"`
	Share             string               `json:"share"`
	ProjectType       string               `json:"projectType"`
	WorkingDirectory  string               `json:"workingDirectory"`
	Targets           []string             `json:"targets"`
	Active            bool                 `json:"active"`
	Enabled           bool                 `json:"enabled"`
	BreadCrumbAction  string               `json:"breadCrumbAction"`
	DelayedActionDays int                  `json:"delayedActionDays"`
	Filter            archiveProjectFilter `json:"filter"`
	Schedule          archiveProjectPeriod `json:"schedule"`
}

type archiveProjectFilter struct {
	MinimumAge      string `json:"minimumAge"`
	CustomAgeInDays int    `json:"customAgeInDays"`
	MinimumSize     string `json:"minimumSize"`
}

type archiveProjectPeriod struct {
	Period string `json:"period"`
}
