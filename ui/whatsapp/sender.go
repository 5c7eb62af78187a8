package whatsapp

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/ndavydoff/music-finder/config"
)

const twilioTimeout = 30 * time.Second

// SendMessage delivers an outbound message through the Twilio REST API.
// mediaURL is optional; when set, Twilio fetches it and attaches the file.
func SendMessage(to, body, mediaURL string) error {
	if config.TwilioAccountSID == "" || config.TwilioAuthToken == "" {
		return fmt.Errorf("twilio credentials are not configured")
	}

	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", config.TwilioAccountSID)

	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	args.Set("To", to)
	args.Set("From", config.TwilioFrom)
	args.Set("Body", body)
	if mediaURL != "" {
		args.Set("MediaUrl", mediaURL)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	req.Header.Set(fasthttp.HeaderAuthorization, basicAuth(config.TwilioAccountSID, config.TwilioAuthToken))
	req.SetBody(args.QueryString())

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := fasthttp.DoTimeout(req, resp, twilioTimeout); err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("twilio returned status %d: %s", resp.StatusCode(), resp.Body())
	}

	return nil
}

func basicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}
