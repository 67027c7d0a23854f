package controller

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/pion/webrtc/v4"
)

// turnCredentials implements the coturn REST API scheme: the username is the
// expiry timestamp and the password is base64(HMAC-SHA1(secret, username)).
func turnCredentials(secret string, expiresAt time.Time) (string, string) {
	username := strconv.FormatInt(expiresAt.Unix(), 10)

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(username))

	return username, base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (c controller) iceServers(now time.Time) []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, 2)

	if len(c.config.StunURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: c.config.StunURLs})
	}

	if len(c.config.TurnURLs) > 0 && c.config.TurnSecret != "" {
		username, password := turnCredentials(c.config.TurnSecret, now.Add(c.config.TurnTTL))
		servers = append(servers, webrtc.ICEServer{
			URLs:           c.config.TurnURLs,
			Username:       username,
			Credential:     password,
			CredentialType: webrtc.ICECredentialTypePassword,
		})
	}

	return servers
}

func (c controller) getIceServers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	c.writeJSON(w, http.StatusOK, c.iceServers(time.Now()))
}
