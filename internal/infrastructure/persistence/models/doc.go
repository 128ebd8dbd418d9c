// Package models holds the GORM rows behind the custody aggregate: documents
// with their cached ledger columns, the append-only payment_events log and the
// audit_records trail. Conversion to and from domain types lives next to each
// model.
package models
