package geo

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	localLabel   = "Local Development"
	unknownLabel = "Unknown Location"
)

var client = &http.Client{Timeout: 3 * time.Second}

// Locate derives a coarse location label for a client address. Private,
// loopback and unparseable addresses are treated as local; public addresses
// are resolved via ipapi.co, falling back to an unknown label on any failure.
func Locate(ctx context.Context, ipAddress string) string {
	host := ipAddress
	if h, _, err := net.SplitHostPort(ipAddress); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil || ip.IsPrivate() || ip.IsLoopback() {
		return localLabel
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ipapi.co/"+host+"/json/", nil)
	if err != nil {
		return unknownLabel
	}
	resp, err := client.Do(req)
	if err != nil {
		return unknownLabel
	}
	defer resp.Body.Close()

	var payload struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return unknownLabel
	}

	parts := make([]string, 0, 3)
	for _, part := range []string{payload.City, payload.Region, payload.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return unknownLabel
	}
	return strings.Join(parts, ", ")
}
