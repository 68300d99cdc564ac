package handlers

import (
	"bytes"
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/kriwitj/nso-forms/internal/service"
)

// patchBody holds a PATCH document by field. Absent, null and mistyped
// fields all read as "not provided", except where a helper says otherwise.
type patchBody map[string]json.RawMessage

func bindPatch(c *gin.Context) (patchBody, bool) {
	var body patchBody
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		return nil, false
	}
	return body, true
}

func (p patchBody) has(key string) (json.RawMessage, bool) {
	raw, ok := p[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func (p patchBody) String(key string) *string {
	raw, ok := p.has(key)
	if !ok {
		return nil
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

func (p patchBody) Bool(key string) *bool {
	raw, ok := p.has(key)
	if !ok {
		return nil
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// Int accepts whole JSON numbers only.
func (p patchBody) Int(key string) *int {
	raw, ok := p.has(key)
	if !ok {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil || f != float64(int(f)) {
		return nil
	}
	v := int(f)
	return &v
}

// Strings accepts an array of strings; ok is false otherwise.
func (p patchBody) Strings(key string) ([]string, bool) {
	raw, ok := p.has(key)
	if !ok {
		return nil, false
	}
	var v []string
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

// Time reads a nullable timestamp. An explicit null clears the field.
func (p patchBody) Time(key string) service.TimePatch {
	raw, ok := p[key]
	if !ok {
		return service.TimePatch{}
	}
	if isNull(raw) {
		return service.TimePatch{Set: true}
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil {
		return service.TimePatch{}
	}
	return service.TimePatch{Set: true, Value: &v}
}
