package translation

import (
	"github.com/leonelquinteros/gotext"
)

// Translate resolves an alert message in the configured language, falling
// back to the message id itself when no catalog entry exists.
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
