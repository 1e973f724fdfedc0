package delivery

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns a client whose outbound connections originate from senderIP.
// An empty or unspecified address (0.0.0.0, ::) leaves source selection to the OS.
func NewHTTPClient(senderIP string, timeout time.Duration) (*http.Client, error) {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}

	if senderIP != "" {
		ip := net.ParseIP(senderIP)
		if ip == nil {
			return nil, fmt.Errorf("invalid sender ip %q", senderIP)
		}
		if !ip.IsUnspecified() {
			dialer.LocalAddr = &net.TCPAddr{IP: ip}
		}
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = dialer.DialContext
	tr.MaxIdleConnsPerHost = 64

	return &http.Client{Timeout: timeout, Transport: tr}, nil
}
