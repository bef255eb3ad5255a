package model

// CommandResult is returned by text modification endpoints.
type CommandResult struct {
	CommandName string `json:"commandName"`
	ElementID   string `json:"elementId,omitempty"`
	Message     string `json:"message,omitempty"`
	Success     bool   `json:"success"`
	Warning     string `json:"warning,omitempty"`
}

// RedactResponse reports the outcome of a redaction.
type RedactResponse struct {
	Count    int      `json:"count"`
	Success  bool     `json:"success"`
	Warnings []string `json:"warnings,omitempty"`
}
