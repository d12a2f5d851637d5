// Package idgen generates the protocol-prefixed random IDs the wire schemas
// expect (chatcmpl-, resp_, msg_, rs_), each a prefix plus a random hex
// suffix derived from a uuid.
package idgen

import (
	"strings"

	"github.com/google/uuid"
)

const (
	PrefixChatCompletion = "chatcmpl-"
	PrefixResponse       = "resp_"
	PrefixMessage        = "msg_"
	PrefixReasoning      = "rs_"
)

// New returns prefix followed by a 16-character random hex suffix.
func New(prefix string) string {
	return prefix + hexSuffix()
}

func hexSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
