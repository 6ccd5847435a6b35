package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOneSignalURL = "https://api.onesignal.com/notifications"

// OneSignalSender delivers notifications through the OneSignal REST API,
// targeting recipients by external user ID.
type OneSignalSender struct {
	appID   string
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOneSignalSender(appID, apiKey string) *OneSignalSender {
	return &OneSignalSender{
		appID:   appID,
		apiKey:  apiKey,
		baseURL: defaultOneSignalURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type oneSignalRequest struct {
	AppID                  string            `json:"app_id"`
	IncludeExternalUserIDs []string          `json:"include_external_user_ids"`
	Headings               map[string]string `json:"headings"`
	Contents               map[string]string `json:"contents"`
	Data                   NotificationData  `json:"data"`
}

func (s *OneSignalSender) Send(n Notification) error {
	payload := oneSignalRequest{
		AppID:                  s.appID,
		IncludeExternalUserIDs: n.ExternalUserIDs,
		Headings:               map[string]string{"en": n.Title},
		Contents:               map[string]string{"en": n.Message},
		Data:                   n.Data,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push delivery failed: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}
