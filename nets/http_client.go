package nets

import (
	"net/http"

	"golang.org/x/net/http2"
)

type HTTPClient = *http.Client

func (Module) HTTPClient(
	dialer Dialer,
) HTTPClient {
	transport := &http.Transport{
		DialContext: dialer.DialContext,
	}
	// enable HTTP/2 over the proxy-aware dialer; providers that stream SSE
	// responses still negotiate h1 when the server doesn't advertise h2.
	_ = http2.ConfigureTransport(transport)
	return &http.Client{
		Transport: transport,
	}
}
