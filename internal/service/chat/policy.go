package chat

import (
	"fmt"
	"strings"
)

// OverlapPolicy decides what happens when the user submits again while a
// previous turn is still awaiting its response.
type OverlapPolicy string

const (
	// PolicyAllow lets turns run concurrently, each with its own request.
	PolicyAllow OverlapPolicy = "allow"
	// PolicyDrop rejects the new submission with ErrTurnInFlight.
	PolicyDrop OverlapPolicy = "drop"
	// PolicyQueue holds the new submission until the previous turn settles.
	PolicyQueue OverlapPolicy = "queue"
)

// ParseOverlapPolicy parses a policy name; empty means PolicyQueue.
func ParseOverlapPolicy(raw string) (OverlapPolicy, error) {
	switch p := OverlapPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return PolicyQueue, nil
	case PolicyAllow, PolicyDrop, PolicyQueue:
		return p, nil
	default:
		return "", fmt.Errorf("unknown overlap policy %q", raw)
	}
}
