package models

type ImportStatus string

const (
	ImportStatusPending        ImportStatus = "pending"
	ImportStatusProcessing     ImportStatus = "processing"
	ImportStatusDone           ImportStatus = "done"
	ImportStatusDoneWithErrors ImportStatus = "done_with_errors"
	ImportStatusError          ImportStatus = "error"
)

// IsTerminal reports whether a session can no longer change state.
func (s ImportStatus) IsTerminal() bool {
	switch s {
	case ImportStatusDone, ImportStatusDoneWithErrors, ImportStatusError:
		return true
	default:
		return false
	}
}

// IsValid reports whether the value is a known import status.
func (s ImportStatus) IsValid() bool {
	switch s {
	case ImportStatusPending, ImportStatusProcessing, ImportStatusDone,
		ImportStatusDoneWithErrors, ImportStatusError:
		return true
	default:
		return false
	}
}

type FileType string

const (
	FileTypeStat  FileType = "stat"
	FileTypeRecap FileType = "recap"
)

// InsuredRole qualifies the insured/employer/policy link.
type InsuredRole string

const (
	RolePrimary InsuredRole = "primary"
	RoleSpouse  InsuredRole = "spouse"
	RoleChild   InsuredRole = "child"
	RoleOther   InsuredRole = "other"
)

// RoleForStatusCode maps the spreadsheet insured-status codes to roles:
// "A" principal, "C" spouse, "E" child, anything else other.
func RoleForStatusCode(code string) InsuredRole {
	switch code {
	case "A":
		return RolePrimary
	case "C":
		return RoleSpouse
	case "E":
		return RoleChild
	default:
		return RoleOther
	}
}

type ClaimStatus string

const (
	ClaimApproved ClaimStatus = "A"
	ClaimRejected ClaimStatus = "R"
	ClaimCanceled ClaimStatus = "C"
)
