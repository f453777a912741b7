package geocode

// SetTestURL points a client at a test server and lifts its rate limit.
// This should only be used in tests.
func SetTestURL(c *Client, baseURL string) {
	if baseURL != "" {
		c.baseURL = baseURL
	}
	c.limiter = nil
}
