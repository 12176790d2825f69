package ports

import "net/http"

// HTTPClient defines the interface for making HTTP requests
// so gateway adapters can be exercised against fakes in tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
