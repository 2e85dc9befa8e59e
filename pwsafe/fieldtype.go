package pwsafe

// HeaderType identifies a header field of the database.
type HeaderType uint8

const (
	HeaderVersion               HeaderType = 0x00
	HeaderUUID                  HeaderType = 0x01
	HeaderNonDefaultPreferences HeaderType = 0x02
	HeaderTreeDisplayStatus     HeaderType = 0x03
	HeaderTimestampOfLastSave   HeaderType = 0x04
	HeaderWhoPerformedLastSave  HeaderType = 0x05 // deprecated composite, kept raw
	HeaderWhatPerformedLastSave HeaderType = 0x06
	HeaderLastSavedByUser       HeaderType = 0x07
	HeaderLastSavedOnHost       HeaderType = 0x08
	HeaderDatabaseName          HeaderType = 0x09
	HeaderDatabaseDescription   HeaderType = 0x0a
	HeaderDatabaseFilters       HeaderType = 0x0b
	HeaderRecentlyUsedEntries   HeaderType = 0x0f
	HeaderNamedPasswordPolicies HeaderType = 0x10
	HeaderEmptyGroups           HeaderType = 0x11
	HeaderEndOfEntry            HeaderType = 0xff
)

// RecordType identifies a record field of an entry.
type RecordType uint8

const (
	RecordUUID                     RecordType = 0x01
	RecordGroup                    RecordType = 0x02
	RecordTitle                    RecordType = 0x03
	RecordUserName                 RecordType = 0x04
	RecordNotes                    RecordType = 0x05
	RecordPassword                 RecordType = 0x06
	RecordCreationTime             RecordType = 0x07
	RecordPasswordModificationTime RecordType = 0x08
	RecordLastAccessTime           RecordType = 0x09
	RecordPasswordExpiryTime       RecordType = 0x0a
	RecordLastModificationTime     RecordType = 0x0c
	RecordUrl                      RecordType = 0x0d
	RecordAutotype                 RecordType = 0x0e
	RecordPasswordHistory          RecordType = 0x0f
	RecordPasswordPolicy           RecordType = 0x10
	RecordRunCommand               RecordType = 0x12
	RecordDoubleClickAction        RecordType = 0x13
	RecordEmailAddress             RecordType = 0x14
	RecordProtectedEntry           RecordType = 0x15
	RecordOwnSymbolsForPassword    RecordType = 0x16
	RecordShiftDoubleClickAction   RecordType = 0x17
	RecordTwoFactorKey             RecordType = 0x18
	RecordCreditCardNumber         RecordType = 0x19
	RecordCreditCardExpiration     RecordType = 0x1a
	RecordCreditCardVerifValue     RecordType = 0x1b
	RecordCreditCardPin            RecordType = 0x1c
	RecordEndOfEntry               RecordType = 0xff
)

func knownHeaderType(t HeaderType) bool {
	switch t {
	case HeaderVersion, HeaderUUID, HeaderNonDefaultPreferences,
		HeaderTreeDisplayStatus, HeaderTimestampOfLastSave,
		HeaderWhoPerformedLastSave, HeaderWhatPerformedLastSave,
		HeaderLastSavedByUser, HeaderLastSavedOnHost, HeaderDatabaseName,
		HeaderDatabaseDescription, HeaderDatabaseFilters,
		HeaderRecentlyUsedEntries, HeaderNamedPasswordPolicies,
		HeaderEmptyGroups, HeaderEndOfEntry:
		return true
	}
	return false
}

func knownRecordType(t RecordType) bool {
	switch t {
	case RecordUUID, RecordGroup, RecordTitle, RecordUserName, RecordNotes,
		RecordPassword, RecordCreationTime, RecordPasswordModificationTime,
		RecordLastAccessTime, RecordPasswordExpiryTime,
		RecordLastModificationTime, RecordUrl, RecordAutotype,
		RecordPasswordHistory, RecordPasswordPolicy, RecordRunCommand,
		RecordDoubleClickAction, RecordEmailAddress, RecordProtectedEntry,
		RecordOwnSymbolsForPassword, RecordShiftDoubleClickAction,
		RecordTwoFactorKey, RecordCreditCardNumber, RecordCreditCardExpiration,
		RecordCreditCardVerifValue, RecordCreditCardPin, RecordEndOfEntry:
		return true
	}
	return false
}
