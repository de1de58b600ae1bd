// Package validation validates API requests and workflow documents.
//
// Struct tags are checked with go-playground/validator; field names in
// messages use the json tag so errors read like the request body:
//
//	type executeRequest struct {
//	    Nodes []workflow.Node `json:"nodes" validate:"required,dive"`
//	}
//	err := validation.ValidateStruct(req) // "nodes[0].id: is required"
//
// Rules that need more than one field are collected with a Validator:
//
//	v := validation.New()
//	v.Custom(!seen[id], "nodes", "duplicate node id "+id)
//	return v.Validate()
package validation
