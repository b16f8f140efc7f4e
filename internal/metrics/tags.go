package metrics

import "fmt"

// Tag creates a DataDog tag string in "key:value" format.
func Tag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

func EndpointTag(endpoint string) string {
	return Tag("endpoint", endpoint)
}

func OperationTag(op string) string {
	return Tag("operation", op)
}

// OutcomeTag tags a provider call result (success, unauthorized, ...).
func OutcomeTag(outcome string) string {
	return Tag("outcome", outcome)
}

func ReasonTag(reason string) string {
	return Tag("reason", reason)
}

func CircuitStateTag(state string) string {
	return Tag("circuit_state", state)
}

// MergeTags returns base followed by extra without modifying base.
func MergeTags(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	if len(base) == 0 {
		return extra
	}
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
