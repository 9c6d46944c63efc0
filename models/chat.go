package models

// ChatRequest is the body of POST /chat
type ChatRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id"`
}

// ChatResponse is the body of every /chat reply, including degraded ones
type ChatResponse struct {
	Answer  string `json:"answer"`
	Version string `json:"version"`
}

// URLRequest is the body of POST /trainurl
type URLRequest struct {
	URL string `json:"url" binding:"required"`
}

// AdmissionOptions is the taxonomy returned by POST /admission-options
type AdmissionOptions struct {
	Categories []string            `json:"categories"`
	Courses    map[string][]string `json:"courses"`
}
