package domain

import "encoding/json"

// BindParams decodes a node's configuration map into a typed params struct.
// Unknown fields are ignored; type mismatches surface as ConfigurationError
// attributed to the node.
func BindParams(node Node, out any) error {
	data, err := json.Marshal(node.Data)
	if err != nil {
		return &ConfigurationError{NodeID: node.ID, Field: "data", Reason: err.Error()}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &ConfigurationError{NodeID: node.ID, Field: "data", Reason: err.Error()}
	}

	return nil
}
