package dispatch

import "regexp"

// MockPushToken is the placeholder handed out on simulators where real push
// registration is impossible. Submissions carrying it always get a local
// fallback notification.
const MockPushToken = "ExponentPushToken[MOCK_SIMULATOR_TOKEN]"

// noTokenSentinel is sent to the backend when no push token is available at
// all; the backend skips push delivery for it.
const noTokenSentinel = "NO_TOKEN"

var pushTokenShape = regexp.MustCompile(`^ExponentPushToken\[[A-Za-z0-9_-]+\]$`)

// HasRealPushToken reports whether push delivery can be trusted for this
// token: non-empty, well-formed, and not the simulator mock.
func HasRealPushToken(token string) bool {
	return token != "" && token != MockPushToken && pushTokenShape.MatchString(token)
}
