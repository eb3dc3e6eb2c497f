package portal

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/fukusenta/esp32-via-wifi/internal/wifiinfo"
)

// CredentialRequest is the submission payload from the setup page
type CredentialRequest struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// CredentialResponse acknowledges a submission
type CredentialResponse struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// StatusResponse describes the provisioning state for the setup page
type StatusResponse struct {
	APSSID      string `json:"apSsid"`
	ClientReady bool   `json:"clientReady"`
	Submitted   bool   `json:"submitted"`
}

var setupPage = template.Must(template.New("setup").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.APSSID}} setup</title></head>
<body>
<h1>Wi-Fi setup</h1>
<p>Enter the network this device should join.</p>
<form method="post" action="/api/v1/credentials" enctype="application/x-www-form-urlencoded">
  <label>SSID <input name="ssid" minlength="2" maxlength="32" required></label><br>
  <label>Password <input name="password" type="password" minlength="8" maxlength="63" required></label><br>
  <button type="submit">Save</button>
</form>
</body>
</html>`))

func (s *Server) handleSetupPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := setupPage.Execute(w, StatusResponse{APSSID: s.sink.APSSID()}); err != nil {
		s.logger.WithError(err).Error("Failed to render setup page")
	}
}

func (s *Server) handleSubmitCredentials(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentialRequest(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, CredentialResponse{Message: err.Error()})
		return
	}

	if err := validateCredentials(req); err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, CredentialResponse{Message: err.Error()})
		return
	}

	if err := s.sink.SetClientConfig(req.SSID, req.Password); err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, CredentialResponse{Message: err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, CredentialResponse{
		Accepted: true,
		Message:  "credentials accepted, device will restart",
	})
	s.wsHub.broadcast(StatusResponse{
		APSSID:      s.sink.APSSID(),
		ClientReady: s.sink.IsClientReady(),
		Submitted:   true,
	})
	s.markSubmitted()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	submitted := s.submitted
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, StatusResponse{
		APSSID:      s.sink.APSSID(),
		ClientReady: s.sink.IsClientReady(),
		Submitted:   submitted,
	})
}

// decodeCredentialRequest accepts either a JSON body or the plain form post
// the setup page sends.
func decodeCredentialRequest(r *http.Request) (CredentialRequest, error) {
	var req CredentialRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid JSON body: %w", err)
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, fmt.Errorf("invalid form body: %w", err)
	}
	req.SSID = r.PostFormValue("ssid")
	req.Password = r.PostFormValue("password")
	return req, nil
}

// validateCredentials enforces the semantic field bounds before the record
// capacity check even sees the input.
func validateCredentials(req CredentialRequest) error {
	if len(req.SSID) < 2 || len(req.SSID) > wifiinfo.MaxSSIDLen {
		return fmt.Errorf("ssid must be 2 to %d characters", wifiinfo.MaxSSIDLen)
	}
	if len(req.Password) < 8 || len(req.Password) > wifiinfo.MaxPasswordLen {
		return fmt.Errorf("password must be 8 to %d characters", wifiinfo.MaxPasswordLen)
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}
