package model

// AuditStatus tags how a single raw answer was handled
type AuditStatus string

const (
	AuditOK                  AuditStatus = "ok"
	AuditRouterError         AuditStatus = "router_error"
	AuditRouterMissingTarget AuditStatus = "router_missing_target"
)

// AuditEntry records the routing and normalization outcome of one raw answer
type AuditEntry struct {
	Partner         Partner     `json:"partner" bson:"partner"`
	FeatureID       string      `json:"featureId,omitempty" bson:"featureId,omitempty"`
	CanonicalText   string      `json:"canonicalText,omitempty" bson:"canonicalText,omitempty"`
	RawText         string      `json:"rawText" bson:"rawText"`
	RawValue        int         `json:"rawValue" bson:"rawValue"`
	NormalizedValue *float64    `json:"normalizedValue" bson:"normalizedValue"`
	Relation        Relation    `json:"relation,omitempty" bson:"relation,omitempty"`
	Confidence      float64     `json:"confidence" bson:"confidence"`
	Flipped         bool        `json:"flipped" bson:"flipped"`
	Retained        bool        `json:"retained" bson:"retained"`
	Alternates      []Alternate `json:"alternates,omitempty" bson:"alternates,omitempty"`
	Status          AuditStatus `json:"status" bson:"status"`
	Error           string      `json:"error,omitempty" bson:"error,omitempty"`
}
