// Package pwsafe reads, mutates, and writes Password Safe V3 databases: an
// encrypted, authenticated, tag-delimited container of password records.
// Unsupported fields are preserved verbatim so that databases can be
// manipulated without losing information.
//
// Per the V3 format, the HMAC covers only the field value bytes, not the
// field type or length.
package pwsafe

// Version is the library version stamped into saved databases.
const Version = "1.0"

const libraryName = "pwvault"
