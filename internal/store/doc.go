// Package store persists ingested records and viewer accounts in a
// sqlite ledger.
//
// The records table mirrors record.Metadata plus the series key it was
// bucketed under, so a later session can list series without re-reading
// the source directory. The users table holds bcrypt-hashed viewer
// accounts managed by the resetpw tool.
package store
